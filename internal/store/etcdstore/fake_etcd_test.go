package etcdstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeEtcd serves the slice of the v2 keys API the store uses:
// PUT with dir/prevExist and GET with recursive/sorted.
type fakeEtcd struct {
	mu      sync.Mutex
	nodes   map[string]*fakeNode
	index   uint64
	deletes int

	// denyAll makes every request fail like a v2 auth rejection.
	denyAll bool

	// leaderElect makes the next n writes fail with errorCode 301.
	leaderElect int
}

type fakeNode struct {
	dir   bool
	value string
	index uint64
}

type jsonNode struct {
	Key           string      `json:"key"`
	Dir           bool        `json:"dir,omitempty"`
	Value         string      `json:"value,omitempty"`
	Nodes         []*jsonNode `json:"nodes,omitempty"`
	CreatedIndex  uint64      `json:"createdIndex"`
	ModifiedIndex uint64      `json:"modifiedIndex"`
}

type jsonError struct {
	Code    int    `json:"errorCode,omitempty"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Index   uint64 `json:"index,omitempty"`
}

func newFakeEtcd(t *testing.T) (*fakeEtcd, *httptest.Server) {
	t.Helper()
	f := &fakeEtcd{nodes: map[string]*fakeNode{"/": {dir: true}}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeEtcd) seedValue(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkParents(key)
	f.index++
	f.nodes[key] = &fakeNode{value: value, index: f.index}
}

func (f *fakeEtcd) mkParents(key string) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i := 1; i < len(parts); i++ {
		p := "/" + strings.Join(parts[:i], "/")
		if _, ok := f.nodes[p]; !ok {
			f.index++
			f.nodes[p] = &fakeNode{dir: true, index: f.index}
		}
	}
}

func (f *fakeEtcd) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.denyAll {
		writeJSON(w, http.StatusUnauthorized, f.index, jsonError{Message: "Insufficient credentials"})
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/v2/keys") {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/v2/keys")
	if key == "" {
		key = "/"
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		f.put(w, r, key)
	case http.MethodGet:
		f.get(w, r, key)
	case http.MethodDelete:
		f.deletes++
		http.Error(w, "delete not expected", http.StatusMethodNotAllowed)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeEtcd) put(w http.ResponseWriter, r *http.Request, key string) {
	if f.leaderElect > 0 {
		f.leaderElect--
		writeJSON(w, http.StatusForbidden, f.index, jsonError{Code: 301, Message: "During Leader Election", Index: f.index})
		return
	}

	if _, ok := f.nodes[key]; ok && r.FormValue("prevExist") == "false" {
		writeJSON(w, http.StatusPreconditionFailed, f.index, jsonError{Code: 105, Message: "Key already exists", Cause: key, Index: f.index})
		return
	}

	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i := 1; i < len(parts); i++ {
		p := "/" + strings.Join(parts[:i], "/")
		if n, ok := f.nodes[p]; ok && !n.dir {
			writeJSON(w, http.StatusForbidden, f.index, jsonError{Code: 104, Message: "Not a directory", Cause: p, Index: f.index})
			return
		}
	}
	f.mkParents(key)

	f.index++
	n := &fakeNode{dir: r.FormValue("dir") == "true", value: r.FormValue("value"), index: f.index}
	f.nodes[key] = n
	writeJSON(w, http.StatusCreated, f.index, map[string]any{
		"action": "create",
		"node":   &jsonNode{Key: key, Dir: n.dir, Value: n.value, CreatedIndex: n.index, ModifiedIndex: n.index},
	})
}

func (f *fakeEtcd) get(w http.ResponseWriter, r *http.Request, key string) {
	n, ok := f.nodes[key]
	if !ok {
		writeJSON(w, http.StatusNotFound, f.index, jsonError{Code: 100, Message: "Key not found", Cause: key, Index: f.index})
		return
	}
	recursive := r.FormValue("recursive") == "true"
	writeJSON(w, http.StatusOK, f.index, map[string]any{
		"action": "get",
		"node":   f.render(key, n, recursive, true),
	})
}

func (f *fakeEtcd) render(key string, n *fakeNode, recursive, top bool) *jsonNode {
	out := &jsonNode{Key: key, Dir: n.dir, Value: n.value, CreatedIndex: n.index, ModifiedIndex: n.index}
	if !n.dir || (!recursive && !top) {
		return out
	}
	prefix := strings.TrimSuffix(key, "/") + "/"
	var children []string
	for k := range f.nodes {
		if k == key || !strings.HasPrefix(k, prefix) {
			continue
		}
		if strings.Contains(strings.TrimPrefix(k, prefix), "/") {
			continue
		}
		children = append(children, k)
	}
	sort.Strings(children)
	for _, k := range children {
		out.Nodes = append(out.Nodes, f.render(k, f.nodes[k], recursive, false))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, index uint64, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Etcd-Index", strconv.FormatUint(index, 10))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

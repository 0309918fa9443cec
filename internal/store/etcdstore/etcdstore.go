// Package etcdstore implements store.Client on the etcd v2 keys API, the
// directory-aware API commissaire keeps its records in.
//
// Directories are created with PrevNoExist, so the create-if-absent check
// happens inside etcd and two concurrent bootstraps cannot both win.
package etcdstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.etcd.io/etcd/client/pkg/v3/transport"
	client "go.etcd.io/etcd/client/v2"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// Config holds what is needed to reach an etcd cluster.
type Config struct {
	Endpoints []string
	Username  string
	Password  string

	// TLS client material. All empty means plain HTTP.
	CertFile string
	KeyFile  string
	CAFile   string

	DialTimeout             time.Duration
	HeaderTimeoutPerRequest time.Duration
}

// Store is a store.Client backed by etcd.
type Store struct {
	kapi      client.KeysAPI
	transport *http.Transport
}

var _ store.Client = (*Store)(nil)

// New builds a client for the cluster. It does not contact etcd; the first
// request surfaces connection problems.
func New(cfg Config) (*Store, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd: no endpoints configured")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	tr, err := transport.NewTransport(transport.TLSInfo{
		CertFile:      cfg.CertFile,
		KeyFile:       cfg.KeyFile,
		TrustedCAFile: cfg.CAFile,
	}, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("etcd: build transport: %w", err)
	}

	c, err := client.New(client.Config{
		Endpoints:               cfg.Endpoints,
		Transport:               tr,
		Username:                cfg.Username,
		Password:                cfg.Password,
		HeaderTimeoutPerRequest: cfg.HeaderTimeoutPerRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd: new client: %w", err)
	}

	return &Store{kapi: client.NewKeysAPI(c), transport: tr}, nil
}

func key(path string) string {
	return "/" + store.Clean(path)
}

func pathOf(key string) string {
	return store.Clean(key)
}

// CreateDirectory implements store.Client. etcd creates missing parent
// directories itself.
func (s *Store) CreateDirectory(ctx context.Context, path string) (store.Outcome, error) {
	if err := store.Validate(path); err != nil {
		return 0, store.NewError(store.OpCreate, path, store.KindUnknown, err)
	}
	path = store.Clean(path)

	_, err := s.kapi.Set(ctx, key(path), "", &client.SetOptions{
		Dir:       true,
		PrevExist: client.PrevNoExist,
	})
	if err == nil {
		return store.Created, nil
	}

	var etcdErr client.Error
	if !errors.As(err, &etcdErr) || etcdErr.Code != client.ErrorCodeNodeExist {
		return 0, store.NewError(store.OpCreate, path, classify(err), err)
	}

	// Something is there; only a directory counts as success.
	resp, err := s.kapi.Get(ctx, key(path), nil)
	if err != nil {
		return 0, store.NewError(store.OpCreate, path, classify(err), fmt.Errorf("inspect existing node: %w", err))
	}
	if resp.Node == nil || !resp.Node.Dir {
		return 0, store.NewError(store.OpCreate, path, store.KindConflict, fmt.Errorf("existing node is not a directory"))
	}
	return store.AlreadyExists, nil
}

// ListRecursive implements store.Client.
func (s *Store) ListRecursive(ctx context.Context, path string) ([]store.Node, error) {
	path = store.Clean(path)

	resp, err := s.kapi.Get(ctx, key(path), &client.GetOptions{Recursive: true, Sort: true})
	if err != nil {
		return nil, store.NewError(store.OpList, path, classify(err), err)
	}
	if resp.Node == nil || !resp.Node.Dir {
		return nil, store.NewError(store.OpList, path, store.KindConflict, fmt.Errorf("not a directory"))
	}

	nodes := []store.Node{}
	var walk func(client.Nodes)
	walk = func(children client.Nodes) {
		for _, n := range children {
			nodes = append(nodes, store.Node{Path: pathOf(n.Key), Dir: n.Dir})
			walk(n.Nodes)
		}
	}
	walk(resp.Node.Nodes)

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
	return nil
}

// classify maps etcd client errors onto store kinds.
func classify(err error) store.Kind {
	var etcdErr client.Error
	if errors.As(err, &etcdErr) {
		switch etcdErr.Code {
		case client.ErrorCodeKeyNotFound:
			return store.KindNotFound
		case client.ErrorCodeNotDir, client.ErrorCodeNotFile, client.ErrorCodeNodeExist:
			return store.KindConflict
		case client.ErrorCodeUnauthorized, client.ErrorCodeRootROnly:
			return store.KindPermissionDenied
		case client.ErrorCodeRaftInternal, client.ErrorCodeLeaderElect:
			return store.KindTransient
		case 0:
			// v2 auth rejections carry only a message.
			if strings.Contains(strings.ToLower(etcdErr.Message), "credentials") {
				return store.KindPermissionDenied
			}
		}
		return store.KindUnknown
	}

	if kind, ok := store.ClassifyNetError(err); ok {
		return kind
	}

	var clusterErr *client.ClusterError
	if errors.As(err, &clusterErr) {
		return classifyCluster(clusterErr)
	}

	return store.KindUnknown
}

// classifyCluster looks at the per-endpoint errors. The cluster is only
// transient when every endpoint failed transiently; a single refused
// connection with no other signal means the store is unreachable.
func classifyCluster(ce *client.ClusterError) store.Kind {
	if len(ce.Errors) == 0 {
		return store.KindUnreachable
	}
	for _, e := range ce.Errors {
		if kind, ok := store.ClassifyNetError(e); !ok || kind != store.KindTransient {
			return store.KindUnreachable
		}
	}
	return store.KindTransient
}

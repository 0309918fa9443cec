package s3store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"endpoint", Config{AccessKey: "a", SecretKey: "b", Bucket: "c"}, "endpoint is required"},
		{"keys", Config{Endpoint: "minio:9000", Bucket: "c"}, "access key and secret key"},
		{"bucket", Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_DefaultRegion(t *testing.T) {
	s, err := New(Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "commissaire"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
	assert.Equal(t, "commissaire", s.bucketName)
}

func TestMarkerKey(t *testing.T) {
	assert.Equal(t, "commissaire/hosts/", markerKey("/commissaire/hosts"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.Kind
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, store.KindNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, store.KindPermissionDenied},
		{"slow down", minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}, store.KindTransient},
		{"bare 503", minio.ErrorResponse{StatusCode: http.StatusServiceUnavailable}, store.KindTransient},
		{"bare 403", minio.ErrorResponse{StatusCode: http.StatusForbidden}, store.KindPermissionDenied},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, store.KindUnreachable},
		{"deadline", fmt.Errorf("stat: %w", context.DeadlineExceeded), store.KindTransient},
		{"other", errors.New("boom"), store.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

// fakeS3 answers just enough of the S3 API for CreateDirectory: the
// bucket exists, objects are kept in memory.
type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string]bool
	bucketHeads int
}

func newFakeS3(t *testing.T) (*fakeS3, *Store) {
	t.Helper()
	f := &fakeS3{objects: make(map[string]bool)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "commissaire-test",
	})
	require.NoError(t, err)
	return f, s
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != "commissaire-test" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch {
	case key == "" && r.Method == http.MethodHead:
		f.bucketHeads++
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if !f.objects[key] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Last-Modified", "Mon, 19 Oct 2026 10:00:00 GMT")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		f.objects[key] = true
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeS3) heads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bucketHeads
}

func TestCreateDirectory_BucketCheckRetriedAfterFailure(t *testing.T) {
	f, s := newFakeS3(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.CreateDirectory(cancelled, "commissaire/hosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	ctx := context.Background()
	out, err := s.CreateDirectory(ctx, "commissaire/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.Created, out)
	assert.Equal(t, 1, f.heads())

	out, err = s.CreateDirectory(ctx, "commissaire/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyExists, out)
	assert.Equal(t, 1, f.heads(), "a successful bucket check is remembered")
}

// TestMinIO runs against a live endpoint when COMMISSAIRE_TEST_S3_ENDPOINT
// is set (for example a local "minio server" on localhost:9000).
func TestMinIO(t *testing.T) {
	endpoint := os.Getenv("COMMISSAIRE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("COMMISSAIRE_TEST_S3_ENDPOINT not set")
	}
	s, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("COMMISSAIRE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("COMMISSAIRE_TEST_S3_SECRET_KEY"),
		Bucket:    "commissaire-test",
	})
	require.NoError(t, err)
	ctx := context.Background()

	root := "run-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	out, err := s.CreateDirectory(ctx, root+"/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.Created, out)

	out, err = s.CreateDirectory(ctx, root+"/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyExists, out)

	nodes, err := s.ListRecursive(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []store.Node{{Path: root + "/hosts", Dir: true}}, nodes)
}

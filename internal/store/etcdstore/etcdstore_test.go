package etcdstore

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	client "go.etcd.io/etcd/client/v2"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func newTestStore(t *testing.T, srv *httptest.Server) *Store {
	t.Helper()
	s, err := New(Config{
		Endpoints:               []string{srv.URL},
		HeaderTimeoutPerRequest: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_NoEndpoints(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoints")
}

func TestCreateDirectory(t *testing.T) {
	_, srv := newFakeEtcd(t)
	s := newTestStore(t, srv)
	ctx := context.Background()

	out, err := s.CreateDirectory(ctx, "commissaire/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.Created, out)

	out, err = s.CreateDirectory(ctx, "commissaire/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyExists, out)

	// Parent was created by etcd.
	out, err = s.CreateDirectory(ctx, "commissaire")
	require.NoError(t, err)
	assert.Equal(t, store.AlreadyExists, out)
}

func TestCreateDirectory_OverValue(t *testing.T) {
	f, srv := newFakeEtcd(t)
	f.seedValue("/commissaire/hosts", `{"address":"10.2.0.2"}`)
	s := newTestStore(t, srv)

	_, err := s.CreateDirectory(context.Background(), "commissaire/hosts")
	require.Error(t, err)
	assert.Equal(t, store.KindConflict, store.KindOf(err))

	_, err = s.CreateDirectory(context.Background(), "commissaire/hosts/child")
	require.Error(t, err)
	assert.Equal(t, store.KindConflict, store.KindOf(err))
}

func TestCreateDirectory_LeaderElection(t *testing.T) {
	f, srv := newFakeEtcd(t)
	f.leaderElect = 1
	s := newTestStore(t, srv)

	_, err := s.CreateDirectory(context.Background(), "commissaire/hosts")
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	out, err := s.CreateDirectory(context.Background(), "commissaire/hosts")
	require.NoError(t, err)
	assert.Equal(t, store.Created, out)
}

func TestCreateDirectory_Unauthorized(t *testing.T) {
	f, srv := newFakeEtcd(t)
	f.denyAll = true
	s := newTestStore(t, srv)

	_, err := s.CreateDirectory(context.Background(), "commissaire/hosts")
	require.Error(t, err)
	assert.Equal(t, store.KindPermissionDenied, store.KindOf(err))
}

func TestCreateDirectory_Unreachable(t *testing.T) {
	_, srv := newFakeEtcd(t)
	url := srv.URL
	srv.Close()

	s, err := New(Config{Endpoints: []string{url}})
	require.NoError(t, err)

	_, err = s.CreateDirectory(context.Background(), "commissaire/hosts")
	require.Error(t, err)
	assert.Equal(t, store.KindUnreachable, store.KindOf(err))
}

func TestListRecursive(t *testing.T) {
	f, srv := newFakeEtcd(t)
	s := newTestStore(t, srv)
	ctx := context.Background()

	for _, p := range []string{"commissaire/status", "commissaire/hosts", "commissaire/hosts-old"} {
		_, err := s.CreateDirectory(ctx, p)
		require.NoError(t, err)
	}
	f.seedValue("/commissaire/hosts/10.2.0.2", "{}")

	nodes, err := s.ListRecursive(ctx, "commissaire")
	require.NoError(t, err)
	assert.Equal(t, []store.Node{
		{Path: "commissaire/hosts", Dir: true},
		{Path: "commissaire/hosts-old", Dir: true},
		{Path: "commissaire/hosts/10.2.0.2", Dir: false},
		{Path: "commissaire/status", Dir: true},
	}, nodes)
	assert.Zero(t, f.deletes)
}

func TestListRecursive_Missing(t *testing.T) {
	_, srv := newFakeEtcd(t)
	s := newTestStore(t, srv)

	_, err := s.ListRecursive(context.Background(), "commissaire")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestListRecursive_Empty(t *testing.T) {
	_, srv := newFakeEtcd(t)
	s := newTestStore(t, srv)
	ctx := context.Background()

	_, err := s.CreateDirectory(ctx, "commissaire")
	require.NoError(t, err)

	nodes, err := s.ListRecursive(ctx, "commissaire")
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.Kind
	}{
		{"key not found", client.Error{Code: client.ErrorCodeKeyNotFound}, store.KindNotFound},
		{"not dir", client.Error{Code: client.ErrorCodeNotDir}, store.KindConflict},
		{"unauthorized code", client.Error{Code: client.ErrorCodeUnauthorized}, store.KindPermissionDenied},
		{"auth message", client.Error{Message: "Insufficient credentials"}, store.KindPermissionDenied},
		{"leader election", client.Error{Code: client.ErrorCodeLeaderElect}, store.KindTransient},
		{"raft internal", client.Error{Code: client.ErrorCodeRaftInternal}, store.KindTransient},
		{"other etcd", client.Error{Code: client.ErrorCodeInvalidField}, store.KindUnknown},
		{"deadline", context.DeadlineExceeded, store.KindTransient},
		{"cluster refused", &client.ClusterError{Errors: []error{
			&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
		}}, store.KindUnreachable},
		{"cluster timeouts", &client.ClusterError{Errors: []error{
			context.DeadlineExceeded, context.DeadlineExceeded,
		}}, store.KindTransient},
		{"plain", errors.New("boom"), store.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

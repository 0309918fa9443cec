package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func TestFaultStore_ScriptedCreateFailures(t *testing.T) {
	ctx := context.Background()
	fs := NewFaultStore()
	fs.FailCreate("a/b", Transient(store.OpCreate, "a/b"))

	_, err := fs.CreateDirectory(ctx, "a/b")
	require.Error(t, err)
	assert.True(t, store.IsTransient(err))

	out, err := fs.CreateDirectory(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, store.Created, out)

	assert.Equal(t, 2, fs.Creates("a/b"))
	assert.Equal(t, 2, fs.TotalCreates())
	assert.Equal(t, 1, fs.MaxInFlight())
}

func TestFaultStore_ScriptedListFailures(t *testing.T) {
	ctx := context.Background()
	fs := NewFaultStore()
	_, err := fs.CreateDirectory(ctx, "a/b")
	require.NoError(t, err)

	fs.FailList(store.NewError(store.OpList, "a", store.KindUnreachable, nil))

	_, err = fs.ListRecursive(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, store.KindUnreachable, store.KindOf(err))

	nodes, err := fs.ListRecursive(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []store.Node{{Path: "a/b", Dir: true}}, nodes)
	assert.Equal(t, 2, fs.Lists())
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is a thread-safe in-memory hierarchical store.
//
// It backs tests and dry runs. Create-if-absent is atomic under the mutex.
type Memory struct {
	mu    sync.RWMutex
	nodes map[string]bool // path -> dir
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nodes: make(map[string]bool)}
}

// CreateDirectory implements Client.
func (m *Memory) CreateDirectory(ctx context.Context, path string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewError(OpCreate, path, KindOf(err), err)
	}
	if err := Validate(path); err != nil {
		return 0, NewError(OpCreate, path, KindUnknown, err)
	}
	path = Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range Ancestors(path) {
		if dir, ok := m.nodes[a]; ok && !dir {
			return 0, NewError(OpCreate, path, KindConflict, fmt.Errorf("ancestor %s is not a directory", a))
		}
	}

	if dir, ok := m.nodes[path]; ok {
		if !dir {
			return 0, NewError(OpCreate, path, KindConflict, fmt.Errorf("not a directory"))
		}
		return AlreadyExists, nil
	}

	for _, a := range Ancestors(path) {
		m.nodes[a] = true
	}
	m.nodes[path] = true
	return Created, nil
}

// ListRecursive implements Client.
func (m *Memory) ListRecursive(ctx context.Context, path string) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(OpList, path, KindOf(err), err)
	}
	path = Clean(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if dir, ok := m.nodes[path]; !ok || !dir {
		return nil, NewError(OpList, path, KindNotFound, nil)
	}

	nodes := []Node{}
	for p, dir := range m.nodes {
		if IsBelow(p, path) {
			nodes = append(nodes, Node{Path: p, Dir: dir})
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

// PutValue stores a leaf value node, creating ancestor directories.
// It exists to seed unrelated data in tests.
func (m *Memory) PutValue(path string) {
	path = Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range Ancestors(path) {
		m.nodes[a] = true
	}
	m.nodes[path] = false
}

// Close implements Client.
func (m *Memory) Close() error {
	return nil
}

package store

import (
	"context"
	"io"
)

// Outcome reports what CreateDirectory did.
type Outcome int

const (
	// Created means the directory did not exist and was created.
	Created Outcome = iota + 1
	// AlreadyExists means a directory was already present at the path.
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already exists"
	default:
		return "unknown"
	}
}

// Node is a single entry of a recursive listing.
type Node struct {
	Path string `json:"path"`
	Dir  bool   `json:"dir"`
}

// Client is the subset of a hierarchical store used by the bootstrapper.
// Implementations must be safe for concurrent use.
type Client interface {
	// CreateDirectory ensures a directory node exists at path, creating
	// missing ancestors. A leaf value at path is a KindConflict error.
	CreateDirectory(ctx context.Context, path string) (Outcome, error)

	// ListRecursive returns every node below path (path itself excluded),
	// sorted by path. A missing path is a KindNotFound error.
	ListRecursive(ctx context.Context, path string) ([]Node, error)

	io.Closer
}

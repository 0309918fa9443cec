// Package store defines the client contract the bootstrapper needs from a
// hierarchical key-value store, and the error taxonomy shared by every
// backend.
//
// Only two operations are required:
//   - CreateDirectory: create-if-absent of a directory node, including any
//     missing ancestors. Reports Created or AlreadyExists.
//   - ListRecursive: every node below a directory, sorted by path.
//
// No backend in this repository exposes a delete.
//
// # Paths
//
// Paths are slash separated with no leading or trailing slash, for example
// "commissaire/hosts". Backends translate to their native key shape.
//
// # Errors
//
// Backends return *Error values carrying a Kind, so callers can tell a
// transient failure (retry) from an unreachable store or a permission
// problem (abort) without knowing which backend they talk to.
package store

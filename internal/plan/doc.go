// Package plan holds the namespace plan: the ordered set of container
// directories a commissaire deployment needs under its root prefix.
//
// A Plan is immutable once built. Entries() hands out a copy, so callers
// cannot add or remove entries while a bootstrap run is using it.
//
// Adding a new container category means adding one string to
// defaultEntries. Nothing in the creator or verifier needs to change.
package plan

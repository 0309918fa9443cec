package plan

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// defaultEntries are the top-level containers every commissaire
// deployment expects, in the order they are reported to the operator.
var defaultEntries = []string{
	"clusters",
	"cluster",
	"hosts",
	"networks",
	"status",
}

// ErrInvalidEntry is returned (wrapped) for entries that are not a single path segment.
var ErrInvalidEntry = errors.New("invalid namespace entry")

// Entry is a single path segment relative to the root prefix.
type Entry string

// Plan is an ordered, read-only sequence of namespace entries.
type Plan struct {
	entries []Entry
}

// Default returns the canonical commissaire namespace plan.
func Default() Plan {
	p, err := New(defaultEntries...)
	if err != nil {
		// defaultEntries is a compile-time constant list.
		panic(fmt.Sprintf("plan: default entries invalid: %v", err))
	}
	return p
}

// New validates entries and builds a Plan preserving their order.
//
// Each entry is normalized to Unicode NFC so that visually identical
// names cannot produce two sibling directories.
func New(entries ...string) (Plan, error) {
	seen := make(map[Entry]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, raw := range entries {
		e, err := normalize(raw)
		if err != nil {
			return Plan{}, fmt.Errorf("entry %d (%q): %w", i, raw, err)
		}
		if prev, ok := seen[e]; ok {
			return Plan{}, fmt.Errorf("entry %d (%q): %w: duplicate of entry %d", i, raw, ErrInvalidEntry, prev)
		}
		seen[e] = i
		out = append(out, e)
	}
	return Plan{entries: out}, nil
}

func normalize(raw string) (Entry, error) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	switch {
	case s == "":
		return "", fmt.Errorf("%w: empty segment", ErrInvalidEntry)
	case strings.Contains(s, "/"):
		return "", fmt.Errorf("%w: segment contains '/'", ErrInvalidEntry)
	case s == "." || s == "..":
		return "", fmt.Errorf("%w: relative segment", ErrInvalidEntry)
	}
	return Entry(s), nil
}

// Entries returns a copy of the planned entries in plan order.
func (p Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p Plan) Len() int {
	return len(p.entries)
}

// Paths returns root + "/" + entry for every entry, in plan order.
func (p Plan) Paths(root string) []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Path(root)
	}
	return out
}

// Path joins the entry onto the root prefix.
func (e Entry) Path(root string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return string(e)
	}
	return root + "/" + string(e)
}

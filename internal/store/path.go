package store

import (
	"fmt"
	"strings"
)

// Clean trims surrounding slashes and collapses empty segments.
func Clean(path string) string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// Join joins segments with "/" and cleans the result.
func Join(segments ...string) string {
	return Clean(strings.Join(segments, "/"))
}

// Ancestors returns the proper ancestors of path, outermost first.
//
//	Ancestors("a/b/c") == []string{"a", "a/b"}
func Ancestors(path string) []string {
	parts := strings.Split(Clean(path), "/")
	if len(parts) <= 1 {
		return nil
	}
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "/"))
	}
	return out
}

// IsBelow reports whether path lies strictly under dir.
func IsBelow(path, dir string) bool {
	dir = Clean(dir)
	path = Clean(path)
	if dir == "" {
		return path != ""
	}
	return strings.HasPrefix(path, dir+"/")
}

// Validate rejects empty paths and paths containing "." or ".." segments.
func Validate(path string) error {
	c := Clean(path)
	if c == "" {
		return fmt.Errorf("empty path")
	}
	for _, seg := range strings.Split(c, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("relative segment in path %q", path)
		}
	}
	return nil
}

package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
)

// ErrIncomplete is matched by errors.Is when verification finds planned
// directories missing from the tree.
var ErrIncomplete = errors.New("namespace incomplete")

// EntryError reports a fatal failure while creating one plan entry.
type EntryError struct {
	Entry    plan.Entry
	Path     string
	Op       string
	Attempts int
	Err      error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %q (%s) failed after %d attempt(s): %v", e.Op, e.Entry, e.Path, e.Attempts, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// PhaseError reports a fatal failure of the verification listing.
type PhaseError struct {
	Phase    Phase
	Op       string
	Path     string
	Attempts int
	Err      error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s %s failed after %d attempt(s): %v", e.Phase, e.Op, e.Path, e.Attempts, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// IncompleteError lists planned paths absent after creation.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncomplete, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

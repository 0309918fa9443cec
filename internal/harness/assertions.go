package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// AssertionError is returned when an assertion fails.
// It carries the last report so the failure can be read in context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Report   *bootstrap.Report
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != nil {
		fmt.Fprintf(&buf, "\nLast report:\n%s\n", e.Report)
	}
	return buf.String()
}

func check(r *Result, a Assertion) error {
	switch a.Type {
	case AssertPhase:
		return assertPhase(r, a)
	case AssertEntryStatus:
		return assertEntryStatus(r, a)
	case AssertTree:
		return assertTree(r, a)
	case AssertCallCount:
		return assertCallCount(r, a)
	case AssertErrorKind:
		return assertErrorKind(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertPhase(r *Result, a Assertion) error {
	last := r.Last()
	if string(last.Phase) != a.Phase {
		return &AssertionError{Type: a.Type, Expected: a.Phase, Actual: string(last.Phase), Report: last}
	}
	if a.FailedPhase != "" && string(last.FailedPhase) != a.FailedPhase {
		return &AssertionError{
			Type:     a.Type,
			Expected: "failed during " + a.FailedPhase,
			Actual:   "failed during " + string(last.FailedPhase),
			Report:   last,
		}
	}
	return nil
}

func assertEntryStatus(r *Result, a Assertion) error {
	last := r.Last()
	for _, e := range last.Entries {
		if string(e.Entry) != a.Entry {
			continue
		}
		if string(e.Status) != a.Status {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s", a.Entry, a.Status),
				Actual:   fmt.Sprintf("%s %s", a.Entry, e.Status),
				Report:   last,
			}
		}
		if a.Attempts != 0 && e.Attempts != a.Attempts {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s after %d attempt(s)", a.Entry, a.Attempts),
				Actual:   fmt.Sprintf("%s after %d attempt(s)", a.Entry, e.Attempts),
				Report:   last,
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: "entry " + a.Entry, Actual: "not in plan", Report: last}
}

func assertTree(r *Result, a Assertion) error {
	last := r.Last()
	actual := make([]string, len(last.Tree))
	for i, n := range last.Tree {
		actual[i] = n.Path
		if n.Dir {
			actual[i] += "/"
		}
	}
	expected := a.Paths
	if expected == nil {
		expected = []string{}
	}
	if !slices.Equal(expected, actual) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%v", expected),
			Actual:   fmt.Sprintf("%v", actual),
			Report:   last,
		}
	}
	return nil
}

func assertCallCount(r *Result, a Assertion) error {
	var actual int
	label := a.Op
	switch {
	case a.Op == store.OpList:
		actual = r.Store.Lists()
	case a.Path != "":
		actual = r.Store.Creates(a.Path)
		label += " " + a.Path
	default:
		actual = r.Store.TotalCreates()
	}
	if actual != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s call(s)", a.Count, label),
			Actual:   fmt.Sprintf("%d %s call(s)", actual, label),
			Report:   r.Last(),
		}
	}
	return nil
}

func assertErrorKind(r *Result, a Assertion) error {
	actual := "none"
	if r.Err != nil {
		actual = strings.ToLower(string(store.KindOf(r.Err)))
	}
	if actual != strings.ToLower(a.Kind) {
		return &AssertionError{Type: a.Type, Expected: a.Kind, Actual: actual, Report: r.Last()}
	}
	return nil
}

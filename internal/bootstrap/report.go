package bootstrap

import (
	"fmt"
	"io"
	"strings"

	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// Phase is a state of the bootstrap pipeline.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhaseCreating  Phase = "creating"
	PhaseVerifying Phase = "verifying"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// Status is the outcome of one plan entry.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already exists"
	StatusFailed        Status = "failed"

	// StatusSkipped marks entries never issued because an earlier
	// fatal error cancelled the run.
	StatusSkipped Status = "skipped"
)

// EntryResult records what happened to one plan entry.
type EntryResult struct {
	Entry    plan.Entry `json:"entry"`
	Path     string     `json:"path"`
	Status   Status     `json:"status"`
	Attempts int        `json:"attempts"`
	Error    string     `json:"error,omitempty"`

	err error
}

// Err returns the fatal error for a failed entry, nil otherwise.
func (r EntryResult) Err() error {
	return r.err
}

// Report is the operator-facing record of one run.
type Report struct {
	RunID       string        `json:"run_id"`
	Store       string        `json:"store,omitempty"`
	RootPrefix  string        `json:"root_prefix"`
	Phase       Phase         `json:"phase"`
	FailedPhase Phase         `json:"failed_phase,omitempty"`
	Entries     []EntryResult `json:"entries"`
	Tree        []store.Node  `json:"tree"`
	Error       string        `json:"error,omitempty"`
}

// Count returns the number of entries with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// Succeeded reports whether the run reached PhaseDone.
func (r *Report) Succeeded() bool {
	return r.Phase == PhaseDone
}

func (r *Report) enter(p Phase) {
	r.Phase = p
}

func (r *Report) fail(at Phase, err error) {
	r.FailedPhase = at
	r.Phase = PhaseFailed
	r.Error = err.Error()
}

// WriteText renders the report for a terminal: one line per entry, then
// the namespace tree, then the result.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Bootstrap of %q", r.RootPrefix)
	if r.Store != "" {
		fmt.Fprintf(&b, " on %s", r.Store)
	}
	fmt.Fprintf(&b, " (run %s)\n", r.RunID)

	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %-15s %s", e.Status, e.Path)
		if e.Error != "" {
			fmt.Fprintf(&b, ": %s", e.Error)
		}
		b.WriteByte('\n')
	}

	if r.Tree != nil {
		WriteTree(&b, r.RootPrefix, r.Tree)
	}

	switch r.Phase {
	case PhaseDone:
		fmt.Fprintf(&b, "Result: done (%d created, %d already present)\n",
			r.Count(StatusCreated), r.Count(StatusAlreadyExists))
	case PhaseFailed:
		fmt.Fprintf(&b, "Result: failed during %s: %s\n", r.FailedPhase, r.Error)
	default:
		fmt.Fprintf(&b, "Result: %s\n", r.Phase)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the report as WriteText does, without the final newline.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.WriteText(&b)
	return strings.TrimSuffix(b.String(), "\n")
}

// WriteTree renders a recursive listing the way `etcdctl ls -p` does:
// absolute paths, directories suffixed with "/".
func WriteTree(w io.Writer, root string, nodes []store.Node) {
	fmt.Fprintf(w, "Tree under /%s:\n", root)
	if len(nodes) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, n := range nodes {
		suffix := ""
		if n.Dir {
			suffix = "/"
		}
		fmt.Fprintf(w, "  /%s%s\n", n.Path, suffix)
	}
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// Scenario defines one bootstrap scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	RootPrefix string `yaml:"root_prefix,omitempty"`

	// Entries replaces the default plan when present.
	Entries []string `yaml:"entries,omitempty"`

	Concurrency int    `yaml:"concurrency,omitempty"`
	Runs        int    `yaml:"runs,omitempty"`
	RunID       string `yaml:"run_id,omitempty"`

	// Setup is store state present before the first run.
	Setup Setup `yaml:"setup,omitempty"`

	// Faults are injected in order, each consumed by one matching call.
	Faults []Fault `yaml:"faults,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Setup seeds the store.
type Setup struct {
	Directories []string `yaml:"directories,omitempty"`
	Values      []string `yaml:"values,omitempty"`
}

// Fault scripts a failing store call.
type Fault struct {
	// Op is "create" or "list".
	Op string `yaml:"op"`

	// Path is the create path. Ignored for list.
	Path string `yaml:"path,omitempty"`

	// Kind is a store.Kind in lower case, e.g. "transient".
	Kind string `yaml:"kind"`

	// Times is how many consecutive calls fail. Defaults to 1.
	Times int `yaml:"times,omitempty"`

	// Message is the underlying error text. Defaults to "injected fault".
	Message string `yaml:"message,omitempty"`
}

// Assertion checks one aspect of the last run.
type Assertion struct {
	Type string `yaml:"type"`

	// phase
	Phase       string `yaml:"phase,omitempty"`
	FailedPhase string `yaml:"failed_phase,omitempty"`

	// entry_status
	Entry    string `yaml:"entry,omitempty"`
	Status   string `yaml:"status,omitempty"`
	Attempts int    `yaml:"attempts,omitempty"`

	// tree
	Paths []string `yaml:"paths,omitempty"`

	// call_count
	Op    string `yaml:"op,omitempty"`
	Path  string `yaml:"path,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// error_kind
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertPhase       = "phase"
	AssertEntryStatus = "entry_status"
	AssertTree        = "tree"
	AssertCallCount   = "call_count"
	AssertErrorKind   = "error_kind"
)

var kinds = []store.Kind{
	store.KindUnknown,
	store.KindTransient,
	store.KindUnreachable,
	store.KindPermissionDenied,
	store.KindNotFound,
	store.KindConflict,
}

// parseKind maps "permission_denied" to store.KindPermissionDenied.
func parseKind(s string) (store.Kind, bool) {
	k := store.Kind(strings.ToUpper(s))
	for _, known := range kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative")
	}
	if s.Runs < 0 {
		return fmt.Errorf("runs must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, f := range s.Faults {
		switch f.Op {
		case store.OpCreate:
			if f.Path == "" {
				return fmt.Errorf("faults[%d]: path is required for create", i)
			}
		case store.OpList:
		default:
			return fmt.Errorf("faults[%d]: unknown op %q", i, f.Op)
		}
		if _, ok := parseKind(f.Kind); !ok {
			return fmt.Errorf("faults[%d]: unknown kind %q", i, f.Kind)
		}
		if f.Times < 0 {
			return fmt.Errorf("faults[%d]: times must be non-negative", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase", index)
		}
	case AssertEntryStatus:
		if a.Entry == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: entry and status are required for entry_status", index)
		}
		switch bootstrap.Status(a.Status) {
		case bootstrap.StatusCreated, bootstrap.StatusAlreadyExists, bootstrap.StatusFailed, bootstrap.StatusSkipped:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertTree:
	case AssertCallCount:
		if a.Op != store.OpCreate && a.Op != store.OpList {
			return fmt.Errorf("assertions[%d]: op must be create or list for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertErrorKind:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for error_kind", index)
		}
		if _, ok := parseKind(a.Kind); !ok && a.Kind != "none" {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

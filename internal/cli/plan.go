package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// PlanResult is the output of the plan command.
type PlanResult struct {
	Source     string      `json:"source"`
	RootPrefix string      `json:"root_prefix"`
	Entries    []PlanEntry `json:"entries"`
}

// PlanEntry is one planned directory.
type PlanEntry struct {
	Entry string `json:"entry"`
	Path  string `json:"path"`
}

func (r PlanResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan (%s), %d entries under /%s:", r.Source, len(r.Entries), r.RootPrefix)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "\n  /%s/", e.Path)
	}
	return b.String()
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the directories a bootstrap would ensure",
		Long: `Print the effective namespace plan and the store paths it maps to.
The store is not contacted.

Example:
  commissaire-bootstrap plan
  commissaire-bootstrap plan --plan ./namespace.cue --root-prefix staging`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, cmd)
		},
	}
}

func runPlan(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	p, source, err := loadPlan(cfg)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}
	formatter.VerboseLog("Loaded %d entries from %s", p.Len(), source)

	result := PlanResult{Source: source, RootPrefix: cfg.RootPrefix}
	for _, e := range p.Entries() {
		result.Entries = append(result.Entries, PlanEntry{Entry: string(e), Path: e.Path(cfg.RootPrefix)})
	}
	return formatter.Success(result)
}

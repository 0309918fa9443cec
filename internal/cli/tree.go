package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// TreeResult is the output of the tree command.
type TreeResult struct {
	RootPrefix string       `json:"root_prefix"`
	Nodes      []store.Node `json:"nodes"`
}

func (r TreeResult) String() string {
	var b strings.Builder
	bootstrap.WriteTree(&b, r.RootPrefix, r.Nodes)
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "List the namespace without changing it",
		Long: `List every node under the root prefix, recursively, without creating
anything. Fails if the root prefix does not exist.

Example:
  commissaire-bootstrap tree
  commissaire-bootstrap tree --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, cmd)
		},
	}
}

func runTree(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	client, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer closeStore(client, logger)

	b, err := newBootstrapper(client, cfg, opts, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	nodes, err := b.Tree(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeTree, err.Error(), map[string]string{
			"root_prefix": b.RootPrefix(),
			"kind":        string(store.KindOf(err)),
		})
		return WrapExitError(ExitFailure, "listing failed", err)
	}

	return formatter.Success(TreeResult{RootPrefix: b.RootPrefix(), Nodes: nodes})
}

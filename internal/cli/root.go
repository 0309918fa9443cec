package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigPath  string
	RootPrefix  string
	Backend     string
	PlanFile    string
	Concurrency int

	// Getenv reads the environment (for testing). Defaults to os.Getenv.
	Getenv func(string) string

	// RunIDs allows overriding run ID generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs bootstrap.RunIDGenerator

	// LogWriter receives structured logs. Defaults to the command's stderr.
	LogWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Run without a subcommand it
// bootstraps the namespace.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commissaire-bootstrap",
		Short: "Create the commissaire namespace in the backing store",
		Long: `Create the top-level container directories commissaire expects under
its root prefix, then list the resulting tree.

Existing directories are left alone, so running the bootstrap again is
always safe. Nothing is ever deleted.

Example:
  commissaire-bootstrap
  commissaire-bootstrap --config /etc/commissaire/commissaire.conf --format json
  commissaire-bootstrap --backend sqlite --root-prefix commissaire-test`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Concurrency < 0 {
				return NewExitError(ExitCommandError, "--concurrency must not be negative")
			}
			// A missing .env is normal.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return WrapExitError(ExitCommandError, "load .env", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(opts, cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "configuration file (default "+defaultConfigHint+")")
	pf.StringVar(&opts.RootPrefix, "root-prefix", "", "override the namespace root prefix")
	pf.StringVar(&opts.Backend, "backend", "", "override the store backend (etcd|sqlite|postgres|s3|memory)")
	pf.StringVar(&opts.PlanFile, "plan", "", "CUE file replacing the built-in namespace plan")
	pf.IntVar(&opts.Concurrency, "concurrency", 0, "directory creations in flight (0 keeps the configured value)")

	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) getenv() func(string) string {
	if o.Getenv != nil {
		return o.Getenv
	}
	return os.Getenv
}

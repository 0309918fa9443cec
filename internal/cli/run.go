package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/projectatomic/commissaire-bootstrap/internal/backend"
	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/config"
	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

const defaultConfigHint = config.DefaultPath + " if present"

func runBootstrap(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd)

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
	logger.Debug("plan loaded", "source", source, "entries", p.Len())

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

	report, runErr := b.Run(ctx, p)
	formatter.RunID = report.RunID
	if runErr != nil {
		if opts.Format == "json" {
			_ = formatter.Error(ErrCodeBootstrap, runErr.Error(), report)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), report)
		}
		return WrapExitError(ExitFailure, "bootstrap failed", runErr)
	}

	return formatter.Success(report)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger configures slog based on the verbose flag and installs it
// as the default logger.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	var w io.Writer = opts.LogWriter
	if w == nil {
		w = cmd.ErrOrStderr()
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads the configuration and applies flag overrides on top.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.getenv())
	if err != nil {
		return nil, err
	}

	changed := false
	if opts.RootPrefix != "" {
		cfg.RootPrefix = opts.RootPrefix
		changed = true
	}
	if opts.Backend != "" {
		cfg.Store.Backend = config.Backend(opts.Backend)
		changed = true
	}
	if opts.PlanFile != "" {
		cfg.PlanFile = opts.PlanFile
		changed = true
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadPlan returns the plan to apply and a label for where it came from.
func loadPlan(cfg *config.Config) (plan.Plan, string, error) {
	if cfg.PlanFile == "" {
		return plan.Default(), "built-in", nil
	}
	p, err := plan.LoadFile(cfg.PlanFile)
	if err != nil {
		return plan.Plan{}, "", err
	}
	return p, cfg.PlanFile, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Client, error) {
	logger.Debug("opening store", "backend", cfg.Store.Backend)
	client, err := backend.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("store ready", "backend", cfg.Store.Backend)
	return client, nil
}

func closeStore(client store.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("error closing store", "error", err)
	}
}

func newBootstrapper(client store.Client, cfg *config.Config, opts *RootOptions, logger *slog.Logger) (*bootstrap.Bootstrapper, error) {
	bopts := bootstrap.OptionsFromConfig(cfg)
	bopts.Logger = logger
	bopts.RunIDs = opts.RunIDs
	return bootstrap.New(client, bopts)
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
// The command's context is used as parent if set (for testing).
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, func()) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

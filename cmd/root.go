// Package cmd provides the CLI commands for autoclean-k8s.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance. Verbose lowers the level
	// from info to debug.
	LoggerFactory func(verbose bool) (Logger, error)

	// ConfigLoader loads and validates the repository targets from the
	// given configuration file path.
	ConfigLoader func(path string) ([]domain.RepoTarget, error)

	// DefaultConfigPath resolves the configuration file location used
	// when the --config flag is not set.
	DefaultConfigPath func() (string, error)

	// KindValidator checks that every configured resource kind is known,
	// so a typo fails the run before any repository or cluster access.
	KindValidator func(kinds []string) error

	// BranchListerFactory creates the live branch set source.
	BranchListerFactory func(log Logger) (domain.BranchLister, error)

	// ResourceListerFactory creates the deployed branch set source.
	ResourceListerFactory func(log Logger) (domain.ResourceBranchLister, error)

	// DeleterFactory creates the deletion executor.
	DeleterFactory func(log Logger) (domain.ResourceDeleter, error)

	// ReconcilerFactory creates the reconciler from its two sources.
	ReconcilerFactory func(
		branches domain.BranchLister,
		resources domain.ResourceBranchLister,
		log Logger,
	) domain.Reconciler

	// RunnerFactory creates the run driver from its collaborators.
	RunnerFactory func(
		reconciler domain.Reconciler,
		deleter domain.ResourceDeleter,
		output domain.OutputWriter,
		log Logger,
	) domain.Runner

	// OutputWriterFactory creates the stdout candidate writer.
	OutputWriterFactory func() domain.OutputWriter

	// Stderr is the writer for warnings raised before logging is up.
	Stderr io.Writer
}

// Command-line flags.
var (
	simulate   bool
	configPath string
	verbose    bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for autoclean-k8s.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autoclean-k8s",
		Short: "Delete branch-scoped Kubernetes resources whose git branch is gone",
		Long: `autoclean-k8s reconciles branch-scoped Kubernetes resources against the
git branches that created them.

For every configured repository it refreshes a local mirror, lists the
branches still alive on the remote, collects the branch names recorded in
resource annotations in the configured namespace, and removes the resources
belonging to branches that no longer exist. Stale branches are written to
stdout as "repository branch" lines; structured logs go to stderr.

The default mode is a simulation: intended deletions are logged but not
performed. Pass --simulate=false to delete for real.

Examples:
  # Show what would be cleaned up
  autoclean-k8s

  # Actually delete stale resources
  autoclean-k8s --simulate=false

  # Use an alternate configuration file
  autoclean-k8s --config ./autoclean.yaml

  # Enable verbose logging
  autoclean-k8s -v`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanup(cmd, deps)
		},
	}

	// Define flags
	rootCmd.Flags().BoolVar(&simulate, "simulate", true,
		"Log intended deletions without performing them (--simulate=false deletes)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to the configuration file (default <user config dir>/autoclean-k8s/config.yaml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runCleanup executes one cleanup pass with injected dependencies.
func runCleanup(cmd *cobra.Command, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Get stderr for warnings raised before the logger exists
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Initialize logger
	log, err := deps.LoggerFactory(verbose)
	if err != nil {
		writeWarningf(stderr, "failed to initialize logging: %v\n", err)
		return fmt.Errorf("logging error: %w", err)
	}

	// Resolve configuration path
	path := configPath
	if path == "" {
		path, err = deps.DefaultConfigPath()
		if err != nil {
			log.Error(ctx, "failed to resolve default configuration path", err, nil)
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	log.Info(ctx, "starting autoclean-k8s", map[string]interface{}{
		"config":   path,
		"simulate": simulate,
		"verbose":  verbose,
	})

	// Load configuration
	targets, err := deps.ConfigLoader(path)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, map[string]interface{}{
			"config": path,
		})
		return fmt.Errorf("configuration error: %w", err)
	}

	// Reject unknown resource kinds before touching any repository or
	// the cluster.
	for _, target := range targets {
		if err := deps.KindValidator(target.Resources); err != nil {
			log.Error(ctx, "configuration names an unknown resource kind", err, map[string]interface{}{
				"repository": target.Name,
			})
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	// Initialize the branch set sources and the deletion executor
	branches, err := deps.BranchListerFactory(log)
	if err != nil {
		log.Error(ctx, "failed to initialize branch lister", err, nil)
		return fmt.Errorf("git error: %w", err)
	}

	resources, err := deps.ResourceListerFactory(log)
	if err != nil {
		log.Error(ctx, "failed to initialize resource lister", err, nil)
		return fmt.Errorf("kubernetes error: %w", err)
	}

	deleter, err := deps.DeleterFactory(log)
	if err != nil {
		log.Error(ctx, "failed to initialize deleter", err, nil)
		return fmt.Errorf("kubernetes error: %w", err)
	}

	// Run the cleanup pass. Per-target and per-candidate failures are
	// logged inside the run and reported in the summary; they do not
	// fail the command.
	reconciler := deps.ReconcilerFactory(branches, resources, log)
	runner := deps.RunnerFactory(reconciler, deleter, deps.OutputWriterFactory(), log)
	summary := runner.Run(ctx, targets, simulate)

	if summary.FailedTargets > 0 || summary.Failures > 0 {
		log.Warn(ctx, "run completed with failures", map[string]interface{}{
			"failed_targets":   summary.FailedTargets,
			"failed_deletions": summary.Failures,
		})
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}

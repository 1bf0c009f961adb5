package cli

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/buildinfo"
	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/overrides"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "depscope"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Depscope tracks unsatisfiable dependencies across package repositories",
		Long:         `Depscope continuously analyzes package repositories partitioned by release and architecture, detects packages whose dependencies cannot be satisfied, filters known false positives, and serves the results as a versioned snapshot.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.overridesCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Helpers
// =============================================================================

// loadOverridesFor returns a loader binding the overrides path to the active
// configuration's release and architecture names.
func loadOverridesFor(path string) func(*config.Config) (*overrides.Filter, error) {
	return func(cfg *config.Config) (*overrides.Filter, error) {
		return overrides.Load(path, cfg.ReleaseNames(), cfg.ArchNames())
	}
}

// =============================================================================
// Paths
// =============================================================================

// snapshotDir is where materialized partition results live.
func snapshotDir(cfg *config.Config) string {
	return filepath.Join(cfg.Service.DataDir, "snapshots")
}

// metadataCacheDir is where per-partition repository metadata caches live.
func metadataCacheDir(cfg *config.Config) string {
	return filepath.Join(cfg.Service.DataDir, "cache")
}

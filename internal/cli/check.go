package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/maintainers"
	"github.com/depscope/depscope/pkg/overrides"
	"github.com/depscope/depscope/pkg/repoquery"
	"github.com/depscope/depscope/pkg/snapshot"
)

// checkCommand runs a single refresh cycle and prints the snapshot.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		configPath    string
		overridesPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single refresh cycle and print the snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			filter, err := overrides.Load(overridesPath, cfg.ReleaseNames(), cfg.ArchNames())
			if err != nil {
				return fmt.Errorf("loading overrides: %w", err)
			}

			directory := maintainers.NewHTTPDirectory(cfg.Maintainers.PocURL, cfg.Maintainers.ListURL, cfg.Maintainers.Timeout())
			if err := directory.Refresh(cmd.Context()); err != nil {
				logger.Warn("maintainer refresh failed, admins will be unknown", "error", err)
			}

			builder := snapshot.NewBuilder(snapshot.BuilderOptions{
				Service:   repoquery.NewDNFService(metadataCacheDir(cfg), logger),
				Directory: directory,
				LoadConfig: func() (*config.Config, error) {
					return cfg, nil
				},
				LoadOverrides: func(*config.Config) (*overrides.Filter, error) {
					return filter, nil
				},
				Overrides: filter,
				Logger:    logger,
			})

			if err := builder.RunCycle(cmd.Context()); err != nil {
				return fmt.Errorf("running refresh cycle: %w", err)
			}

			snap := builder.Store().Current()
			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding snapshot: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(out))

			prog.done(fmt.Sprintf("Checked %d partitions, %d broken packages", len(snap.Partitions), snap.TotalBroken()))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
	cmd.Flags().StringVar(&overridesPath, "overrides", "overrides.json", "path to the overrides file")

	return cmd
}

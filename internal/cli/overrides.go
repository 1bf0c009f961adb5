package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/overrides"
)

// knownScope reports whether value names a configured identifier or the
// "all" wildcard.
func knownScope(value string, known []string) bool {
	if value == "all" {
		return true
	}
	for _, k := range known {
		if k == value {
			return true
		}
	}
	return false
}

// overridesCommand groups the overrides maintenance subcommands.
func (c *CLI) overridesCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Validate and edit the overrides file",
	}

	cmd.PersistentFlags().StringVar(&path, "path", "./overrides.json", "path to the overrides file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the overrides file against the configured releases and architectures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			filter, err := overrides.Load(path, cfg.ReleaseNames(), cfg.ArchNames())
			if err != nil {
				return fmt.Errorf("validating overrides: %w", err)
			}
			for _, rule := range filter.Document().BroadRules() {
				logger.Warn("override matches all packages", "rule", rule)
			}

			fmt.Println("File valid.")
			return nil
		},
	}
	validate.Flags().String("config", config.DefaultPath, "path to the configuration file")

	insert := &cobra.Command{
		Use:   "insert <release> <arch> <dependency> <packages...>",
		Short: "Add an override entry, merging with existing rules",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			// Reject typos here rather than at the next serve startup.
			if !knownScope(args[0], cfg.ReleaseNames()) {
				return fmt.Errorf("unknown release %q", args[0])
			}
			if !knownScope(args[1], cfg.ArchNames()) {
				return fmt.Errorf("unknown architecture %q", args[1])
			}

			doc, err := overrides.ReadDocument(path)
			if err != nil {
				return fmt.Errorf("reading overrides: %w", err)
			}

			changed, note := overrides.Insert(doc, args[0], args[1], args[2], args[3:])
			if note != "" {
				logger.Info(note)
			}
			if !changed {
				logger.Info("no changes needed")
				return nil
			}

			overrides.Sort(doc)
			if err := overrides.WriteDocument(path, doc); err != nil {
				return fmt.Errorf("writing overrides: %w", err)
			}
			logger.Info("overrides updated", "path", path)
			return nil
		},
	}
	insert.Flags().String("config", config.DefaultPath, "path to the configuration file")

	sort := &cobra.Command{
		Use:   "sort",
		Short: "Normalize ordering of the overrides file in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := overrides.ReadDocument(path)
			if err != nil {
				return fmt.Errorf("reading overrides: %w", err)
			}
			overrides.Sort(doc)
			if err := overrides.WriteDocument(path, doc); err != nil {
				return fmt.Errorf("writing overrides: %w", err)
			}
			return nil
		},
	}

	cmd.AddCommand(validate)
	cmd.AddCommand(insert)
	cmd.AddCommand(sort)

	return cmd
}

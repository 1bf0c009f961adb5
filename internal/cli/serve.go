package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/maintainers"
	"github.com/depscope/depscope/pkg/overrides"
	"github.com/depscope/depscope/pkg/repoquery"
	"github.com/depscope/depscope/pkg/server"
	"github.com/depscope/depscope/pkg/snapshot"
	"github.com/depscope/depscope/pkg/storage"
)

// serveCommand runs the refresh scheduler and the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath    string
		overridesPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh scheduler and HTTP API",
		Long:  "Serve loads the configuration and overrides, warms up from persisted results when available, and then runs periodic refresh cycles while exposing the current snapshot over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			// Startup validation is fatal: a typo in the overrides
			// file must not silently reduce coverage.
			filter, err := overrides.Load(overridesPath, cfg.ReleaseNames(), cfg.ArchNames())
			if err != nil {
				return fmt.Errorf("loading overrides: %w", err)
			}
			for _, rule := range filter.Document().BroadRules() {
				logger.Warn("override matches all packages", "rule", rule)
			}

			persist, err := storage.Open(cfg.Storage.Backend, snapshotDir(cfg), cfg.Storage.RedisAddr)
			if err != nil {
				return fmt.Errorf("opening snapshot storage: %w", err)
			}
			defer persist.Close()

			directory := maintainers.NewHTTPDirectory(cfg.Maintainers.PocURL, cfg.Maintainers.ListURL, cfg.Maintainers.Timeout())
			service := repoquery.NewDNFService(metadataCacheDir(cfg), logger)

			builder := snapshot.NewBuilder(snapshot.BuilderOptions{
				Service:   service,
				Directory: directory,
				Persist:   persist,
				LoadConfig: func() (*config.Config, error) {
					return config.Load(configPath)
				},
				LoadOverrides: loadOverridesFor(overridesPath),
				Overrides:     filter,
				Logger:        logger,
			})

			if err := builder.WarmStart(cmd.Context()); err != nil {
				logger.Warn("warm start failed, waiting for first cycle", "error", err)
			}

			srv := server.New(server.Options{
				Store:     builder.Store(),
				Overrides: builder.Overrides,
				ConfigTOML: func() ([]byte, error) {
					return os.ReadFile(configPath)
				},
				Logger: logger,
			})

			httpServer := &http.Server{
				Addr:    cfg.Service.Listen,
				Handler: srv.Router(),
			}

			scheduler := snapshot.NewScheduler(builder, directory, cfg.Service.Interval(), cfg.Service.MaintainerInterval(), logger)

			errs := make(chan error, 2)
			go func() {
				logger.Info("listening", "addr", cfg.Service.Listen)
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errs <- err
				}
			}()
			go func() {
				errs <- scheduler.Run(cmd.Context())
			}()

			select {
			case err := <-errs:
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			case <-cmd.Context().Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown incomplete", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
	cmd.Flags().StringVar(&overridesPath, "overrides", "overrides.json", "path to the overrides file")

	return cmd
}

package commands

import (
	"context"

	"req-oracle/internal/mcp"
	"req-oracle/internal/metrics"
	"req-oracle/internal/oracle"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the forecasting tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, store, err := newService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Save(cfg.DataPath); err != nil {
			log.Error().Err(err).Msg("Failed to save forecast ledger")
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server stopped")
			}
		}()
	}

	load := func() (oracle.Workload, error) { return loadWorkload(cfg) }
	return mcp.NewServer(cfg, svc, load, Version).Start(ctx)
}

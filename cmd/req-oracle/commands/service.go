package commands

import (
	"fmt"

	"req-oracle/internal/capacity"
	"req-oracle/internal/config"
	"req-oracle/internal/ledger"
	"req-oracle/internal/metrics"
	"req-oracle/internal/oracle"
	"req-oracle/internal/simulation"
	"req-oracle/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// loadWorkload reads the configured snapshot.
func loadWorkload(cfg *config.AppConfig) (oracle.Workload, error) {
	snap, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", cfg.SnapshotPath).
		Int("requisitions", len(snap.AllRequisitions())).
		Int("candidates", len(snap.AllCandidates())).
		Msg("Workload snapshot loaded")
	return snap, nil
}

// newService wires the forecasting service from configuration. The returned ledger has
// already been loaded from the data directory.
func newService(cfg *config.AppConfig) (*oracle.Service, *ledger.Store, error) {
	w, err := loadWorkload(cfg)
	if err != nil {
		return nil, nil, err
	}

	cache, err := simulation.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create forecast cache: %w", err)
	}

	store := ledger.NewStore()
	if err := store.Load(cfg.DataPath); err != nil {
		log.Warn().Err(err).Msg("Failed to load forecast ledger, starting empty")
	}

	svc := oracle.NewService(w, oracle.Options{
		Iterations: cfg.Simulation.Iterations,
		Workers:    cfg.Workers,
		Engine: simulation.Options{
			MaxIterations:  cfg.Simulation.MaxIterations,
			WarnIterations: cfg.Simulation.WarnIterations,
			PriorWeight:    cfg.Simulation.PriorWeight,
		},
		Capacity: capacity.ModelOptions{
			QueueFactor:       cfg.Capacity.QueueFactor,
			MaxQueueDelayDays: cfg.Capacity.MaxQueueDelayDays,
		},
		Cache:   cache,
		Metrics: metrics.NewCollector(),
		Ledger:  store,
	})
	return svc, store, nil
}

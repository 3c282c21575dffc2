package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/config"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/internal/modules/classifier"
	"github.com/aristath/comptroller/internal/modules/history"
	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/report"
	"github.com/aristath/comptroller/internal/modules/snapshot"
	"github.com/aristath/comptroller/internal/modules/valuation"
)

// InitializeServices creates the services and subscribes the ingest observers.
// Observers run in subscription order: history first, then the report.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.HistoryDB == nil {
		return fmt.Errorf("history database not initialized")
	}

	table, err := multiplier.LoadTable(cfg.ConstantsFile)
	if err != nil {
		return fmt.Errorf("failed to load production constants: %w", err)
	}
	container.Table = table
	log.Info().
		Str("verified_version", table.VerifiedVersion).
		Int("tiers", len(table.Tiers)).
		Int("maluses", len(table.Maluses)).
		Msg("Production constants loaded")

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	container.Resolver = multiplier.NewResolver(table)
	container.ValuationService = valuation.NewService(container.Resolver, log)

	container.SnapshotStore = snapshot.NewStore(snapshot.NewDecoder(table), container.EventManager, log)
	container.Matcher = classifier.NewRegexMatcher(true)

	container.HistoryRepo = history.NewRepository(container.HistoryDB.Conn(), log)
	container.HistoryService = history.NewService(container.HistoryRepo, container.EventManager, log)

	container.ReportService = report.NewService(
		container.ValuationService,
		container.Matcher,
		cfg.MilestoneFraction,
		container.EventManager,
		log,
	)

	container.subscriptions = append(container.subscriptions,
		container.HistoryService.Subscribe(container.EventBus),
		container.ReportService.Subscribe(container.EventBus),
	)

	log.Info().Msg("Services initialized")
	return nil
}

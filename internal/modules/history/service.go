package history

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/pkg/formulas"
)

const (
	// DefaultTrendLimit is the number of samples a trend covers by default.
	DefaultTrendLimit = 60
	// MaxTrendLimit caps trend requests.
	MaxTrendLimit = 1000
	// TrendEMALength is the EMA period over reported CPS.
	TrendEMALength = 10
)

// Trend summarises recent production.
//
// ExpectedCps is what the host reported; RealizedCps is what the bank
// actually gained between samples, which drops below ExpectedCps whenever
// cookies are spent.
type Trend struct {
	Samples     []Sample `json:"samples"`
	MeanCps     float64  `json:"mean_cps"`
	StdDevCps   float64  `json:"stddev_cps"`
	EmaCps      *float64 `json:"ema_cps"`
	ExpectedCps float64  `json:"expected_cps"`
	RealizedCps *float64 `json:"realized_cps"`
}

// Service records samples on ingest and reports trends
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a history service
func NewService(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("service", "history").Logger(),
	}
}

// Subscribe records a sample for every SNAPSHOT_INGESTED event on bus.
func (s *Service) Subscribe(bus *events.Bus) events.Subscription {
	return bus.Subscribe(events.SnapshotIngested, s.handleSnapshotIngested)
}

func (s *Service) handleSnapshotIngested(event *events.Event) {
	data, ok := event.GetTypedData().(*events.SnapshotIngestedData)
	if !ok || data.Snapshot == nil {
		s.log.Warn().Str("event_type", string(event.Type)).Msg("Ingest event without snapshot, skipping")
		return
	}
	if _, err := s.Record(*data.Snapshot); err != nil {
		s.log.Error().Err(err).Str("snapshot_id", data.SnapshotID).Msg("Failed to record sample")
		if s.events != nil {
			s.events.EmitError("history", err, map[string]interface{}{"snapshot_id": data.SnapshotID})
		}
	}
}

// Record stores a sample for snap and emits HISTORY_RECORDED.
func (s *Service) Record(snap domain.Snapshot) (Sample, error) {
	sample, err := s.repo.Record(snap)
	if err != nil {
		return Sample{}, err
	}

	s.log.Debug().
		Str("sample_id", sample.ID).
		Float64("cookies_ps", sample.CookiesPs).
		Msg("Sample recorded")

	if s.events != nil {
		s.events.EmitTyped("history", &events.HistoryRecordedData{
			SampleID:  sample.ID,
			CookiesPs: sample.CookiesPs,
		})
	}
	return sample, nil
}

// Trend summarises the newest limit samples. A non-positive limit uses
// DefaultTrendLimit.
func (s *Service) Trend(limit int) (Trend, error) {
	if limit <= 0 {
		limit = DefaultTrendLimit
	}
	if limit > MaxTrendLimit {
		limit = MaxTrendLimit
	}

	samples, err := s.repo.Recent(limit)
	if err != nil {
		return Trend{}, fmt.Errorf("failed to load samples: %w", err)
	}
	return BuildTrend(samples), nil
}

// BuildTrend computes the trend of samples ordered oldest first.
func BuildTrend(samples []Sample) Trend {
	trend := Trend{Samples: samples}
	if len(samples) == 0 {
		return trend
	}

	cps := make([]float64, len(samples))
	cookies := make([]float64, len(samples))
	seconds := make([]float64, len(samples))
	start := samples[0].RecordedAt
	for i, s := range samples {
		cps[i] = s.CookiesPs
		cookies[i] = s.Cookies
		seconds[i] = s.RecordedAt.Sub(start).Seconds()
	}

	trend.MeanCps = formulas.Mean(cps)
	trend.StdDevCps = formulas.StdDev(cps)
	trend.EmaCps = formulas.CalculateEMA(cps, TrendEMALength)
	trend.ExpectedCps = cps[len(cps)-1]

	if rates := formulas.Rates(cookies, seconds); len(rates) > 0 {
		realized := formulas.Mean(rates)
		trend.RealizedCps = &realized
	}
	return trend
}

// Snapshot returns the snapshot recorded with sample id.
func (s *Service) Snapshot(id string) (domain.Snapshot, error) {
	return s.repo.LoadSnapshot(id)
}

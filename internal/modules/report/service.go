package report

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/internal/modules/classifier"
	"github.com/aristath/comptroller/internal/modules/valuation"
	"github.com/aristath/comptroller/pkg/formatting"
)

// ErrNoReport is returned before the first report has been built.
var ErrNoReport = errors.New("no report built yet")

// DefaultMilestoneFraction is the production growth the milestone estimate targets.
const DefaultMilestoneFraction = 0.15

// Service builds overlay reports and keeps the latest one.
type Service struct {
	valuation *valuation.Service
	matcher   classifier.Matcher
	fraction  float64
	events    *events.Manager
	log       zerolog.Logger

	mu     sync.RWMutex
	latest *Report
}

// NewService creates a report service. A non-positive milestoneFraction uses
// DefaultMilestoneFraction.
func NewService(valuationService *valuation.Service, matcher classifier.Matcher, milestoneFraction float64, eventManager *events.Manager, log zerolog.Logger) *Service {
	if milestoneFraction <= 0 {
		milestoneFraction = DefaultMilestoneFraction
	}
	return &Service{
		valuation: valuationService,
		matcher:   matcher,
		fraction:  milestoneFraction,
		events:    eventManager,
		log:       log.With().Str("service", "report").Logger(),
	}
}

// Subscribe rebuilds the report on every SNAPSHOT_INGESTED event on bus.
func (s *Service) Subscribe(bus *events.Bus) events.Subscription {
	return bus.Subscribe(events.SnapshotIngested, s.handleSnapshotIngested)
}

func (s *Service) handleSnapshotIngested(event *events.Event) {
	data, ok := event.GetTypedData().(*events.SnapshotIngestedData)
	if !ok || data.Snapshot == nil {
		s.log.Warn().Str("event_type", string(event.Type)).Msg("Ingest event without snapshot, skipping")
		return
	}
	if _, err := s.Refresh(*data.Snapshot); err != nil {
		s.log.Error().Err(err).Str("snapshot_id", data.SnapshotID).Msg("Failed to build report")
		if s.events != nil {
			s.events.EmitError("report", err, map[string]interface{}{"snapshot_id": data.SnapshotID})
		}
	}
}

// Refresh builds the report for snap, keeps it as the latest and emits REPORT_READY.
func (s *Service) Refresh(snap domain.Snapshot) (Report, error) {
	report, err := s.Build(snap)
	if err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	s.latest = &report
	s.mu.Unlock()

	if s.events != nil {
		s.events.EmitTyped("report", &events.ReportReadyData{
			SnapshotID: report.SnapshotID,
			Buildings:  len(report.Buildings),
			Upgrades:   len(report.Upgrades),
			Stale:      report.Header.StaleConstants,
		})
	}
	return report, nil
}

// Latest returns the most recently built report, or ErrNoReport.
func (s *Service) Latest() (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return Report{}, ErrNoReport
	}
	return *s.latest, nil
}

// Build computes the report for snap without storing it.
func (s *Service) Build(snap domain.Snapshot) (Report, error) {
	calc, err := s.valuation.CalculatorFor(snap)
	if err != nil {
		return Report{}, fmt.Errorf("failed to value snapshot %s: %w", snap.ID, err)
	}

	report := Report{
		SnapshotID:  snap.ID,
		GeneratedAt: time.Now().UTC(),
		HostVersion: snap.HostVersion,
		Breakdown:   calc.Breakdown,
		Header:      s.header(snap, calc),
		Buildings:   make([]Row, 0, len(snap.Buildings)),
		Upgrades:    make([]Row, 0, len(snap.StoreUpgrades)),
	}

	for _, b := range snap.Buildings {
		report.Buildings = append(report.Buildings, newRow(calc.Evaluate(b), ""))
	}
	for _, u := range snap.StoreUpgrades {
		report.Upgrades = append(report.Upgrades, newRow(calc.Evaluate(u), u.Description))
	}

	if m, ok := calc.NextGrowthMilestone(snap.Buildings, s.fraction); ok {
		report.Milestone = &m
		report.MilestoneText = m.Seconds.Format(formatting.CoarseDuration)
	} else {
		report.MilestoneText = formatting.Undefined
	}

	report.Income = s.income(snap, calc)
	return report, nil
}

func (s *Service) header(snap domain.Snapshot, calc *valuation.Calculator) Header {
	cps := snap.State.TotalCps
	h := Header{
		Cookies:         snap.Cookies,
		CookiesPs:       cps,
		PerSecondText:   formatting.Metric(cps) + "cookies per second",
		PerMinuteText:   formatting.Metric(cps*60) + "cookies per minute",
		TimePerCookie:   formatting.DescribeTimePerUnit(cps),
		DecoderWarnings: len(snap.Warnings),
	}

	// A counter with no production still shows whole cookies.
	digits, err := formatting.EnoughDigits(snap.Cookies, cps)
	if err != nil {
		digits = 0
	}
	h.CookiesText = formatting.MetricPrefixed(snap.Cookies, digits, true) + "cookies"

	h.Reserve = calc.Resolver.ReserveSize(snap.State, snap.OwnedUpgrades)
	h.ReserveText = formatting.Metric(h.Reserve) + "cookies"
	h.Surplus = snap.Cookies - h.Reserve
	h.SurplusText = formatting.Metric(h.Surplus) + "cookies"
	if h.Surplus > 0 {
		h.SurplusText = "+" + h.SurplusText
	}

	if snap.FrenzyActive() {
		seconds := snap.FrenzySeconds()
		h.Frenzy = &Banner{
			Text:    "FRENZY!! " + strconv.FormatFloat(snap.FrenzyPower*100, 'f', -1, 64) + "% for " + formatting.ToFixed(seconds, 1) + " seconds.",
			Seconds: seconds,
		}
	}
	if snap.ClickFrenzyTicks > 0 {
		seconds := snap.ClickFrenzySeconds()
		h.ClickFrenzy = &Banner{
			Text:    "CLICK FRENZY!! " + formatting.Metric(snap.ComputedMouseCps) + "cookies per click for " + formatting.ToFixed(seconds, 1) + " seconds.",
			Seconds: seconds,
		}
	}

	table := calc.Resolver.Table()
	if table.Stale(snap.HostVersion) {
		h.StaleConstants = true
		h.StaleWarning = fmt.Sprintf("Multiplier constants last verified for version %s; host runs %s.", table.VerifiedVersion, snap.HostVersion)
		s.log.Warn().
			Str("verified_version", table.VerifiedVersion).
			Str("host_version", snap.HostVersion).
			Msg("Multiplier constants may be stale")
	}
	return h
}

func newRow(ev valuation.Evaluation, description string) Row {
	price := formatting.Commas(ev.Price)
	if ev.Incomplete {
		price = formatting.Unknown
	}
	return Row{
		Evaluation:           ev,
		PriceText:            price,
		MinutesToEarnText:    ev.MinutesToEarn.Format(oneDecimal),
		IncrementalValueText: ev.IncrementalValue.Format(percent),
		MinutesToRepayText:   ev.MinutesToRepay.Format(oneDecimal),
		Description:          description,
	}
}

func (s *Service) income(snap domain.Snapshot, calc *valuation.Calculator) Income {
	income := Income{
		Shares:       make([]IncomeShare, 0, len(snap.Buildings)),
		Unclassified: []string{},
	}

	index := make(map[int]int, len(snap.Buildings))
	global := calc.Breakdown.Global()
	for _, b := range snap.Buildings {
		cps := b.TotalCps() * global
		share := valuation.Ratio(cps, snap.State.TotalCps)
		index[b.ID] = len(income.Shares)
		income.Shares = append(income.Shares, IncomeShare{
			Building:   b.Ref(),
			OwnedCount: b.OwnedCount,
			Cps:        cps,
			Share:      share,
			ShareText:  share.Format(percent),
			Upgrades:   []string{},
		})
	}

	for _, u := range snap.StoreUpgrades {
		ref, ok := s.matcher.Match(u, snap.Buildings)
		if !ok {
			income.Unclassified = append(income.Unclassified, u.Name)
			continue
		}
		i := index[ref.ID]
		income.Shares[i].Upgrades = append(income.Shares[i].Upgrades, u.Name)
	}
	return income
}

func oneDecimal(v float64) string {
	return formatting.Decimal(v, 1)
}

func percent(v float64) string {
	return formatting.Decimal(v*100, 2) + "%"
}

package report

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/internal/modules/classifier"
	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/snapshot"
	"github.com/aristath/comptroller/internal/modules/valuation"
	testingpkg "github.com/aristath/comptroller/internal/testing"
)

func newTestService(t *testing.T, manager *events.Manager) *Service {
	t.Helper()
	table, err := multiplier.DefaultTable()
	require.NoError(t, err)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	valuationService := valuation.NewService(multiplier.NewResolver(table), log)
	return NewService(valuationService, classifier.NewRegexMatcher(true), 0, manager, log)
}

func TestBuild_Header(t *testing.T) {
	service := newTestService(t, nil)

	report, err := service.Build(testingpkg.NewSnapshotFixture())
	require.NoError(t, err)

	h := report.Header
	assert.Equal(t, "12.3457 megacookies", h.CookiesText)
	assert.InDelta(t, 5808000, h.Reserve, 1e-6)
	assert.InDelta(t, 6537678, h.Surplus, 1e-6)
	assert.Equal(t, "+6.538 megacookies", h.SurplusText)
	assert.Equal(t, "484.0 cookies per second", h.PerSecondText)
	assert.Equal(t, "29.04 kilocookies per minute", h.PerMinuteText)
	assert.Equal(t, "34.4 minutes per megacookie", h.TimePerCookie)
	assert.Nil(t, h.Frenzy)
	assert.Nil(t, h.ClickFrenzy)
	assert.False(t, h.StaleConstants)
	assert.Empty(t, h.StaleWarning)

	assert.InDelta(t, 2.0, report.Breakdown.PermanentExcludingTiered, 1e-9)
	assert.InDelta(t, 1.1, report.Breakdown.TieredCompounding, 1e-9)
}

func TestBuild_Banners(t *testing.T) {
	service := newTestService(t, nil)

	snap := testingpkg.NewSnapshotFixture()
	snap.FrenzyTicks = 300
	snap.FrenzyPower = 7
	snap.ClickFrenzyTicks = 60
	snap.ComputedMouseCps = 1234567
	snap.HostVersion = "1.0465"

	report, err := service.Build(snap)
	require.NoError(t, err)

	h := report.Header
	require.NotNil(t, h.Frenzy)
	assert.Equal(t, "FRENZY!! 700% for 10.0 seconds.", h.Frenzy.Text)
	assert.InDelta(t, 10, h.Frenzy.Seconds, 1e-9)
	require.NotNil(t, h.ClickFrenzy)
	assert.Equal(t, "CLICK FRENZY!! 1.235 megacookies per click for 2.0 seconds.", h.ClickFrenzy.Text)
	assert.True(t, h.StaleConstants)
	assert.Contains(t, h.StaleWarning, "1.036")
	assert.Contains(t, h.StaleWarning, "1.0465")
}

func TestBuild_Rows(t *testing.T) {
	service := newTestService(t, nil)

	report, err := service.Build(testingpkg.NewSnapshotFixture())
	require.NoError(t, err)

	require.Len(t, report.Buildings, 3)
	assert.Equal(t, "building", report.Buildings[1].Kind)
	assert.Equal(t, "Grandma", report.Buildings[1].Name)
	assert.Equal(t, "0.23%", report.Buildings[1].IncrementalValueText)

	require.Len(t, report.Upgrades, 3)
	byName := make(map[string]Row)
	for _, row := range report.Upgrades {
		byName[row.Name] = row
	}
	assert.Equal(t, "5,000,000", byName["Sugar cookies"].PriceText)
	assert.Equal(t, "5.00%", byName["Sugar cookies"].IncrementalValueText)
	assert.Equal(t, "20.00%", byName["Kitten workers"].IncrementalValueText)
	assert.Equal(t, "?", byName["Cheap hoes"].IncrementalValueText)
	assert.Equal(t, "?", byName["Cheap hoes"].MinutesToRepayText)
	assert.Equal(t, "Farms are twice as efficient.", byName["Cheap hoes"].Description)
}

func TestBuild_IncompleteRowsRenderUnknown(t *testing.T) {
	table, err := multiplier.DefaultTable()
	require.NoError(t, err)
	body := `{
	  "cookies": 1000,
	  "cookiesPs": 100,
	  "objects": [
	    {"id": 0, "name": "Cursor", "basePrice": 15, "amount": 10, "storedCps": 0.1},
	    {"id": 1, "name": "Grandma", "amount": 3}
	  ],
	  "upgradesInStore": [{"name": "Sugar cookies", "type": "cookie", "power": 5}]
	}`
	snap, err := snapshot.NewDecoder(table).Decode([]byte(body))
	require.NoError(t, err)

	report, err := newTestService(t, nil).Build(snap)
	require.NoError(t, err)
	require.Len(t, report.Buildings, 2)
	require.Len(t, report.Upgrades, 1)

	complete := report.Buildings[0]
	assert.False(t, complete.Incomplete)
	assert.NotEqual(t, "?", complete.PriceText)
	assert.NotEqual(t, "?", complete.IncrementalValueText)

	for _, row := range []Row{report.Buildings[1], report.Upgrades[0]} {
		t.Run(row.Name, func(t *testing.T) {
			assert.True(t, row.Incomplete)
			assert.Equal(t, "?", row.PriceText)
			assert.Equal(t, "?", row.MinutesToEarnText)
			assert.Equal(t, "?", row.IncrementalValueText)
			assert.Equal(t, "?", row.MinutesToRepayText)
		})
	}
}

func TestBuild_Milestone(t *testing.T) {
	service := newTestService(t, nil)

	report, err := service.Build(testingpkg.NewSnapshotFixture())
	require.NoError(t, err)

	require.NotNil(t, report.Milestone)
	assert.Equal(t, "Farm", report.Milestone.Building.Name)
	assert.Equal(t, 17, report.Milestone.Units)
	assert.NotEqual(t, "undefined", report.MilestoneText)

	snap := testingpkg.NewSnapshotFixture()
	for i := range snap.Buildings {
		snap.Buildings[i].StoredCps = 0
	}
	report, err = service.Build(snap)
	require.NoError(t, err)
	assert.Nil(t, report.Milestone)
	assert.Equal(t, "undefined", report.MilestoneText)
}

func TestBuild_Income(t *testing.T) {
	service := newTestService(t, nil)

	report, err := service.Build(testingpkg.NewSnapshotFixture())
	require.NoError(t, err)

	income := report.Income
	require.Len(t, income.Shares, 3)
	farm := income.Shares[2]
	assert.Equal(t, "Farm", farm.Building.Name)
	assert.InDelta(t, 352, farm.Cps, 1e-9)
	require.True(t, farm.Share.Ok())
	assert.InDelta(t, 352.0/484, farm.Share.Value, 1e-12)
	assert.Equal(t, []string{"Cheap hoes"}, farm.Upgrades)
	assert.ElementsMatch(t, []string{"Sugar cookies", "Kitten workers"}, income.Unclassified)
}

func TestBuild_InvalidState(t *testing.T) {
	service := newTestService(t, nil)

	snap := testingpkg.NewSnapshotFixture()
	snap.State.GlobalCpsMultiplier = 0

	_, err := service.Build(snap)
	assert.ErrorIs(t, err, multiplier.ErrInvalidState)
}

func TestService_RebuildsOnIngest(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := events.NewBus(log)
	manager := events.NewManager(bus, log)
	service := newTestService(t, manager)
	service.Subscribe(bus)

	_, err := service.Latest()
	assert.ErrorIs(t, err, ErrNoReport)

	var ready []*events.ReportReadyData
	bus.Subscribe(events.ReportReady, func(e *events.Event) {
		if data, ok := e.GetTypedData().(*events.ReportReadyData); ok {
			ready = append(ready, data)
		}
	})
	var failures int
	bus.Subscribe(events.ErrorOccurred, func(*events.Event) { failures++ })

	snap := testingpkg.NewSnapshotFixture()
	manager.EmitTyped("snapshot", &events.SnapshotIngestedData{SnapshotID: snap.ID, Snapshot: &snap})

	require.Len(t, ready, 1)
	assert.Equal(t, "fixture-1", ready[0].SnapshotID)
	assert.Equal(t, 3, ready[0].Buildings)

	report, err := service.Latest()
	require.NoError(t, err)
	assert.Equal(t, "fixture-1", report.SnapshotID)

	broken := domain.Snapshot{ID: "broken"}
	manager.EmitTyped("snapshot", &events.SnapshotIngestedData{SnapshotID: broken.ID, Snapshot: &broken})
	assert.Equal(t, 1, failures)
	assert.Len(t, ready, 1)

	report, err = service.Latest()
	require.NoError(t, err)
	assert.Equal(t, "fixture-1", report.SnapshotID)
}

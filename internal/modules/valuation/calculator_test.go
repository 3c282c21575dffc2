package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
)

func newTestCalculator(t *testing.T, state domain.ProductionState, owned domain.NameSet) *Calculator {
	t.Helper()
	table, err := multiplier.DefaultTable()
	require.NoError(t, err)
	calc, err := NewCalculator(multiplier.NewResolver(table), state, owned)
	require.NoError(t, err)
	return calc
}

func scenarioState() domain.ProductionState {
	return domain.ProductionState{TotalCps: 10, GlobalCpsMultiplier: 2, ActiveTemporaryMultiplier: 1}
}

func scenarioBuilding() domain.Building {
	return domain.Building{ID: 1, Name: "Grandma", Single: "grandma", Plural: "grandmas", BasePrice: 100, PriceGrowthRate: 1.15, StoredCps: 5}
}

func TestCalculator_Scenario(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	b := scenarioBuilding()

	value := calc.IncrementalValuePercent(b)
	require.True(t, value.Ok())
	assert.InDelta(t, 1.0, value.Value, 1e-12)

	repay := calc.MinutesToRepay(b)
	require.True(t, repay.Ok())
	assert.InDelta(t, 100.0/10/60, repay.Value, 1e-12)
	assert.InDelta(t, 0.1667, repay.Value, 1e-4)
}

func TestCalculator_MinutesToRepayUsesCurrentUnitPrice(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	b := scenarioBuilding()
	b.OwnedCount = 2

	repay := calc.MinutesToRepay(b)
	require.True(t, repay.Ok())
	assert.InDelta(t, 100*1.15*1.15/10/60, repay.Value, 1e-12)
}

func TestCalculator_ZeroGainIsUndefined(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	b := scenarioBuilding()
	b.StoredCps = 0

	repay := calc.MinutesToRepay(b)
	assert.False(t, repay.Ok())
	assert.Equal(t, ReasonDivisionByZero, repay.Reason)
	assert.False(t, math.IsNaN(repay.Value))
	assert.False(t, math.IsInf(repay.Value, 0))
	assert.Equal(t, "∞", repay.String())

	value := calc.IncrementalValuePercent(b)
	require.True(t, value.Ok())
	assert.Equal(t, 0.0, value.Value)
}

func TestCalculator_ZeroProduction(t *testing.T) {
	state := scenarioState()
	state.TotalCps = 0
	calc := newTestCalculator(t, state, nil)

	assert.Equal(t, ReasonDivisionByZero, calc.IncrementalValuePercent(scenarioBuilding()).Reason)
	assert.Equal(t, ReasonDivisionByZero, calc.CookiesToMinutes(100).Reason)
}

func TestCalculator_Idempotent(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	b := scenarioBuilding()

	assert.Equal(t, calc.MinutesToRepay(b), calc.MinutesToRepay(b))
	assert.Equal(t, calc.IncrementalValuePercent(b), calc.IncrementalValuePercent(b))
}

func TestCalculator_CookiesToMinutes(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	got := calc.CookiesToMinutes(1200)
	require.True(t, got.Ok())
	assert.InDelta(t, 2.0, got.Value, 1e-12)
}

func TestCalculator_ValueOfUpgrade(t *testing.T) {
	state := domain.ProductionState{
		TotalCps:                  100,
		GlobalCpsMultiplier:       2 * 1.1,
		ActiveTemporaryMultiplier: 1,
		TierProgress:              2,
	}
	calc := newTestCalculator(t, state, domain.NewNameSet("Kitten helpers"))
	b := scenarioBuilding()

	tests := []struct {
		name     string
		upgrade  domain.Upgrade
		target   Target
		expected Figure
	}{
		{
			name:     "global flavor normalised by additive pool",
			upgrade:  domain.Upgrade{Name: "Sugar cookies", Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.1)},
			target:   GlobalTarget(),
			expected: Figure{Value: 0.05},
		},
		{
			name:     "building flavor compounds",
			upgrade:  domain.Upgrade{Name: "Forwards from grandma", Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(1)},
			target:   BuildingTarget(b),
			expected: Figure{Value: 1},
		},
		{
			name:     "tier bonus scales with progress",
			upgrade:  domain.Upgrade{Name: "Kitten workers", Kind: domain.UpgradeTierBonus},
			target:   GlobalTarget(),
			expected: Figure{Value: 0.2},
		},
		{
			name:     "flavor without magnitude",
			upgrade:  domain.Upgrade{Name: "Mystery", Kind: domain.UpgradeFlavor},
			target:   GlobalTarget(),
			expected: Figure{Reason: ReasonUnknownKind},
		},
		{
			name:     "tier bonus not in table",
			upgrade:  domain.Upgrade{Name: "Kitten accountants", Kind: domain.UpgradeTierBonus},
			target:   GlobalTarget(),
			expected: Figure{Reason: ReasonUnknownKind},
		},
		{
			name:     "unknown kind",
			upgrade:  domain.Upgrade{Name: "Lucky day", Kind: domain.UpgradeUnknown},
			target:   GlobalTarget(),
			expected: Figure{Reason: ReasonUnknownKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ValueOfUpgrade(tt.upgrade, tt.target)
			assert.Equal(t, tt.expected.Reason, got.Reason)
			assert.InDelta(t, tt.expected.Value, got.Value, 1e-12)
		})
	}
}

func TestCalculator_IncompleteCandidatesAreUnknown(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)

	b := scenarioBuilding()
	b.Incomplete = true
	assert.Equal(t, ReasonUnknownKind, calc.IncrementalValuePercent(b).Reason)
	assert.Equal(t, ReasonUnknownKind, calc.MinutesToRepay(b).Reason)

	u := domain.Upgrade{Name: "Sugar cookies", Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.05), Incomplete: true}
	assert.Equal(t, ReasonUnknownKind, calc.TimeToRepayUpgrade(u, GlobalTarget()).Reason)
}

func TestCalculator_BuildingTargetUsesReportedBaseCps(t *testing.T) {
	state := scenarioState()
	b := scenarioBuilding()
	b.OwnedCount = 4
	flavor := domain.Upgrade{Name: "Forwards from grandma", BasePrice: 600, Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.1)}

	tests := []struct {
		name    string
		baseCps map[int]float64
		gain    float64
	}{
		{"falls back to owned units", nil, 20 * 0.1},
		{"host figure for the building", map[int]float64{1: 30}, 30 * 0.1},
		{"other buildings ignored", map[int]float64{2: 30}, 20 * 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state.BaseCpsByBuilding = tt.baseCps
			calc := newTestCalculator(t, state, nil)

			repay := calc.TimeToRepayUpgrade(flavor, BuildingTarget(b))
			require.True(t, repay.Ok())
			assert.InDelta(t, 600/tt.gain/60, repay.Value, 1e-9)
		})
	}
}

func TestCalculator_TimeToRepayUpgrade(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	flavor := domain.Upgrade{Name: "Sugar cookies", BasePrice: 600, Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.1)}

	// gain = 10 cps * (0.1 / 2) = 0.5 cps
	global := calc.TimeToRepayUpgrade(flavor, GlobalTarget())
	require.True(t, global.Ok())
	assert.InDelta(t, 600/0.5/60, global.Value, 1e-9)

	b := scenarioBuilding()
	b.OwnedCount = 4
	// gain = 5*4 cps * 0.1 = 2 cps
	building := calc.TimeToRepayUpgrade(flavor, BuildingTarget(b))
	require.True(t, building.Ok())
	assert.InDelta(t, 600/2.0/60, building.Value, 1e-9)

	b.OwnedCount = 0
	assert.Equal(t, ReasonDivisionByZero, calc.TimeToRepayUpgrade(flavor, BuildingTarget(b)).Reason)
	assert.Equal(t, ReasonUnknownKind, calc.TimeToRepayUpgrade(domain.Upgrade{}, GlobalTarget()).Reason)
}

func TestCalculator_UpgradeIncrementalValue(t *testing.T) {
	calc := newTestCalculator(t, scenarioState(), nil)
	b := scenarioBuilding()
	b.OwnedCount = 4
	doubler := domain.Upgrade{Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(1)}

	got := calc.UpgradeIncrementalValue(doubler, BuildingTarget(b))
	require.True(t, got.Ok())
	assert.InDelta(t, 2.0, got.Value, 1e-12)
}

func TestTotalCostForBuildings(t *testing.T) {
	b := domain.Building{BasePrice: 15, PriceGrowthRate: 1.15}

	cost, err := TotalCostForBuildings(b, 0, 3)
	require.NoError(t, err)
	assert.InDelta(t, 52.0875, cost, 1e-9)
	assert.InDelta(t, 52.09, cost, 0.005)

	cost, err = TotalCostForBuildings(b, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)

	flat := domain.Building{BasePrice: 10, PriceGrowthRate: 1}
	cost, err = TotalCostForBuildings(flat, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cost)
}

func TestTotalCostForBuildings_InvalidRange(t *testing.T) {
	b := domain.Building{BasePrice: 15, PriceGrowthRate: 1.15}

	_, err := TotalCostForBuildings(b, 3, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = TotalCostForBuildings(b, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestTotalCostForBuildings_Overflow(t *testing.T) {
	tests := []struct {
		name     string
		building domain.Building
		from, to int
	}{
		{"growing range", domain.Building{Name: "Grandma", BasePrice: 100, PriceGrowthRate: 1.15}, 0, 100000},
		{"far start", domain.Building{Name: "Grandma", BasePrice: 100, PriceGrowthRate: 1.15}, 6000, 6001},
		{"flat price", domain.Building{Name: "Cursor", BasePrice: math.MaxFloat64, PriceGrowthRate: 1}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TotalCostForBuildings(tt.building, tt.from, tt.to)
			assert.ErrorIs(t, err, ErrCostOverflow)
		})
	}
}

func TestTotalCostForBuildings_MatchesIterativeSum(t *testing.T) {
	for _, growth := range []float64{1.1, 1.15} {
		b := domain.Building{BasePrice: 15, PriceGrowthRate: growth}
		for from := 0; from <= 200; from++ {
			for to := from; to <= 200; to++ {
				expected := 0.0
				for n := from; n < to; n++ {
					expected += b.UnitPrice(n)
				}
				got, err := TotalCostForBuildings(b, from, to)
				require.NoError(t, err)
				assert.True(t, scalar.EqualWithinRel(expected, got, 1e-9) || expected == got,
					"growth %v range [%d,%d): expected %v, got %v", growth, from, to, expected, got)
			}
		}
	}
}

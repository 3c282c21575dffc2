// Package valuation computes cost/benefit figures for store purchases.
//
// Every function is a pure computation over one snapshot of production state.
package valuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
)

var (
	// ErrInvalidRange is returned for a building count range with to < from or from < 0.
	ErrInvalidRange = errors.New("invalid building count range")
	// ErrCostOverflow is returned when a summed price does not fit in a float64.
	ErrCostOverflow = errors.New("building cost overflows")
	// ErrIncomplete is returned for candidates the host sent without usable figures.
	ErrIncomplete = errors.New("candidate data incomplete")
)

// Target is where an upgrade applies: global production or one building type.
type Target struct {
	building *domain.Building
}

// GlobalTarget targets total production.
func GlobalTarget() Target {
	return Target{}
}

// BuildingTarget targets a single building type.
func BuildingTarget(b domain.Building) Target {
	return Target{building: &b}
}

// IsGlobal reports whether the target is total production.
func (t Target) IsGlobal() bool {
	return t.building == nil
}

// Building returns the targeted building.
func (t Target) Building() (domain.Building, bool) {
	if t.building == nil {
		return domain.Building{}, false
	}
	return *t.building, true
}

// Calculator values purchases against one production state.
type Calculator struct {
	State     domain.ProductionState
	Breakdown multiplier.Breakdown
	Resolver  *multiplier.Resolver
}

// NewCalculator resolves the multiplier breakdown for state.
func NewCalculator(resolver *multiplier.Resolver, state domain.ProductionState, owned domain.NameSet) (*Calculator, error) {
	breakdown, err := resolver.Resolve(state, owned)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve multipliers: %w", err)
	}
	return &Calculator{State: state, Breakdown: breakdown, Resolver: resolver}, nil
}

// IncrementalValuePercent is the share of total production one more unit of b adds (1.0 = 100%).
func (c *Calculator) IncrementalValuePercent(b domain.Building) Figure {
	if b.Incomplete {
		return unknown()
	}
	return Ratio(b.StoredCps*c.State.GlobalCpsMultiplier, c.State.TotalCps)
}

// MinutesToRepay is how long one more unit of b takes to pay for itself.
func (c *Calculator) MinutesToRepay(b domain.Building) Figure {
	if b.Incomplete {
		return unknown()
	}
	return Ratio(b.UnitPrice(b.OwnedCount), b.StoredCps*c.State.GlobalCpsMultiplier).Scale(1.0 / 60)
}

// CookiesToMinutes is how long current production takes to earn price.
func (c *Calculator) CookiesToMinutes(price float64) Figure {
	return Ratio(price, c.State.TotalCps).Scale(1.0 / 60)
}

// ValueOfUpgrade is the fractional production increase u gives target.
//
// Flavor upgrades add to the permanent additive pool, so a global one is worth
// its magnitude relative to that pool. Building upgrades compound and are worth
// their magnitude. Tier bonuses are worth factor * tier progress.
func (c *Calculator) ValueOfUpgrade(u domain.Upgrade, target Target) Figure {
	switch u.Kind {
	case domain.UpgradeFlavor:
		magnitude, ok := u.Magnitude()
		if !ok {
			return unknown()
		}
		if target.IsGlobal() {
			return Ratio(magnitude, c.Breakdown.PermanentExcludingTiered)
		}
		return defined(magnitude)
	case domain.UpgradeTierBonus:
		if c.Resolver == nil {
			return unknown()
		}
		factor, ok := c.Resolver.TierFactor(u.Name)
		if !ok {
			return unknown()
		}
		return defined(factor * c.State.TierProgress)
	default:
		return unknown()
	}
}

// currentCps is the base production of target. A building reads the host's
// per-building figure when the snapshot carries one.
func (c *Calculator) currentCps(target Target) float64 {
	if b, ok := target.Building(); ok {
		if cps, found := c.State.BaseCpsByBuilding[b.ID]; found {
			return cps
		}
		return b.TotalCps()
	}
	return c.State.TotalCps
}

func (c *Calculator) cpsGain(value Figure, target Target) Figure {
	return value.Scale(c.currentCps(target))
}

// TimeToRepayUpgrade is how long u takes to pay for itself, in minutes.
func (c *Calculator) TimeToRepayUpgrade(u domain.Upgrade, target Target) Figure {
	if u.Incomplete {
		return unknown()
	}
	gain := c.cpsGain(c.ValueOfUpgrade(u, target), target)
	if !gain.Ok() {
		return gain
	}
	return Ratio(u.BasePrice, gain.Value).Scale(1.0 / 60)
}

// UpgradeIncrementalValue is the production u adds as a share of total production.
func (c *Calculator) UpgradeIncrementalValue(u domain.Upgrade, target Target) Figure {
	gain := c.cpsGain(c.ValueOfUpgrade(u, target), target)
	if !gain.Ok() {
		return gain
	}
	return Ratio(gain.Value, c.State.TotalCps)
}

// TotalCostForBuildings is the price of units from..to-1 of b, summed in closed form.
// A sum too large for a float64 is ErrCostOverflow.
func TotalCostForBuildings(b domain.Building, from, to int) (float64, error) {
	if from < 0 || to < from {
		return 0, fmt.Errorf("%w: from %d to %d", ErrInvalidRange, from, to)
	}
	n := float64(to - from)
	if n == 0 {
		return 0, nil
	}

	var cost float64
	if g := b.PriceGrowthRate; g == 1 {
		cost = n * b.BasePrice
	} else {
		cost = b.BasePrice * math.Pow(g, float64(from)) * (math.Pow(g, n) - 1) / (g - 1)
	}
	if math.IsInf(cost, 0) || math.IsNaN(cost) {
		return 0, fmt.Errorf("%w: %s from %d to %d", ErrCostOverflow, b.Name, from, to)
	}
	return cost, nil
}

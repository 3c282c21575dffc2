package valuation

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/pkg/formatting"
)

// Milestone is the cheapest single-building way to grow base production by a fraction.
type Milestone struct {
	Building domain.BuildingRef `json:"building"`
	Units    int                `json:"units"`
	Cost     float64            `json:"cost"`
	Seconds  Figure             `json:"seconds"`
}

// NextGrowthMilestone picks the building type that reaches the growth target for the
// least money. It only considers buying one building type and ignores upgrades, so
// it is an estimate, not a purchase plan. ok is false when nothing produces yet.
func (c *Calculator) NextGrowthMilestone(buildings []domain.Building, fraction float64) (Milestone, bool) {
	base := 0.0
	for _, b := range buildings {
		base += b.TotalCps()
	}
	needed := fraction * base
	if needed <= 0 || math.IsNaN(needed) || math.IsInf(needed, 0) {
		return Milestone{}, false
	}

	var (
		picks []Milestone
		costs []float64
	)
	for _, b := range buildings {
		if b.StoredCps <= 0 || b.Incomplete {
			continue
		}
		units := int(math.Ceil(needed / b.StoredCps))
		cost, err := TotalCostForBuildings(b, b.OwnedCount, b.OwnedCount+units)
		if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
			continue
		}
		picks = append(picks, Milestone{Building: b.Ref(), Units: units, Cost: cost})
		costs = append(costs, cost)
	}
	if len(picks) == 0 {
		return Milestone{}, false
	}

	best := picks[floats.MinIdx(costs)]
	best.Seconds = Ratio(best.Cost, c.State.TotalCps)
	return best, true
}

// EstimateTimeToNextGrowthMilestone renders how long growing base production by
// fraction takes, e.g. "about 3 hours". Approximate; see NextGrowthMilestone.
func (c *Calculator) EstimateTimeToNextGrowthMilestone(buildings []domain.Building, fraction float64) string {
	m, ok := c.NextGrowthMilestone(buildings, fraction)
	if !ok {
		return formatting.Undefined
	}
	return m.Seconds.Format(formatting.CoarseDuration)
}

package valuation

import (
	"fmt"

	"github.com/aristath/comptroller/internal/domain"
)

// DefaultBatchTarget is the owned count the batch calculator aims for by default.
const DefaultBatchTarget = 100

// BatchResult values buying a building up to a target count.
type BatchResult struct {
	Building              domain.BuildingRef `json:"building"`
	Target                int                `json:"target"`
	HowMany               int                `json:"how_many"`
	SayHowMany            string             `json:"say_how_many"`
	TotalCost             float64            `json:"total_cost"`
	MinutesToEarn         Figure             `json:"minutes_to_earn"`
	TotalIncrementalValue Figure             `json:"total_incremental_value"`
	MinutesToRepay        Figure             `json:"minutes_to_repay"`
}

// Batch values buying b until target units are owned. A target at or below the
// owned count buys nothing. An incomplete building is ErrIncomplete and a total
// price beyond float64 range is ErrCostOverflow.
func (c *Calculator) Batch(b domain.Building, target int) (BatchResult, error) {
	if b.Incomplete {
		return BatchResult{}, fmt.Errorf("%w: building %q", ErrIncomplete, b.Name)
	}
	howMany := target - b.OwnedCount
	if howMany < 0 {
		howMany = 0
	}
	cost, err := TotalCostForBuildings(b, b.OwnedCount, b.OwnedCount+howMany)
	if err != nil {
		return BatchResult{}, err
	}

	return BatchResult{
		Building:              b.Ref(),
		Target:                target,
		HowMany:               howMany,
		SayHowMany:            b.Label(howMany),
		TotalCost:             cost,
		MinutesToEarn:         c.CookiesToMinutes(cost),
		TotalIncrementalValue: c.IncrementalValuePercent(b).Scale(float64(howMany)),
		MinutesToRepay:        Ratio(cost, b.StoredCps*c.State.GlobalCpsMultiplier*float64(howMany)).Scale(1.0 / 60),
	}, nil
}

// ManualResult values an upgrade whose effect the user entered by hand.
type ManualResult struct {
	Price            float64 `json:"price"`
	AddFraction      float64 `json:"add_fraction"`
	Multiplier       Figure  `json:"multiplier"`
	CpsGain          Figure  `json:"cps_gain"`
	IncrementalValue Figure  `json:"incremental_value"`
	MinutesToEarn    Figure  `json:"minutes_to_earn"`
	TimeToRepay      Figure  `json:"time_to_repay"`
}

// ManualUpgrade values an upgrade costing price that adds addFraction (0.05 = +5%)
// to target. Global additions land in the additive pool; building additions compound.
func (c *Calculator) ManualUpgrade(price float64, target Target, addFraction float64) ManualResult {
	mult := defined(addFraction)
	if target.IsGlobal() {
		mult = Ratio(addFraction, c.Breakdown.PermanentExcludingTiered)
	}
	gain := c.cpsGain(mult, target)

	res := ManualResult{
		Price:         price,
		AddFraction:   addFraction,
		Multiplier:    mult,
		CpsGain:       gain,
		MinutesToEarn: c.CookiesToMinutes(price),
	}
	if gain.Ok() {
		res.IncrementalValue = Ratio(gain.Value, c.State.TotalCps)
		res.TimeToRepay = Ratio(price, gain.Value).Scale(1.0 / 60)
	} else {
		res.IncrementalValue = gain
		res.TimeToRepay = gain
	}
	return res
}

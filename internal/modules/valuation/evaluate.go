package valuation

import (
	"github.com/aristath/comptroller/internal/domain"
)

// Evaluation is the store row for one purchase candidate.
type Evaluation struct {
	Kind             string  `json:"kind"`
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	MinutesToEarn    Figure  `json:"minutes_to_earn"`
	IncrementalValue Figure  `json:"incremental_value"`
	MinutesToRepay   Figure  `json:"minutes_to_repay"`
	Incomplete       bool    `json:"incomplete,omitempty"`
}

// Evaluate values a store candidate. Upgrades are valued against total production.
// Every figure of an incomplete candidate is unknown.
func (c *Calculator) Evaluate(candidate domain.PurchaseCandidate) Evaluation {
	ev := Evaluation{
		Name:  candidate.CandidateName(),
		Price: candidate.CandidatePrice(),
	}
	switch v := candidate.(type) {
	case domain.Building:
		ev.Kind = "building"
		ev.ID = v.ID
		ev.Incomplete = v.Incomplete
		ev.IncrementalValue = c.IncrementalValuePercent(v)
		ev.MinutesToRepay = c.MinutesToRepay(v)
	case domain.Upgrade:
		ev.Kind = "upgrade"
		ev.ID = v.ID
		ev.Incomplete = v.Incomplete
		ev.IncrementalValue = c.ValueOfUpgrade(v, GlobalTarget())
		ev.MinutesToRepay = c.TimeToRepayUpgrade(v, GlobalTarget())
	}

	if ev.Incomplete {
		ev.MinutesToEarn = unknown()
		ev.IncrementalValue = unknown()
		ev.MinutesToRepay = unknown()
		return ev
	}
	ev.MinutesToEarn = c.CookiesToMinutes(ev.Price)
	return ev
}

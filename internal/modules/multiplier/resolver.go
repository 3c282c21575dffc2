package multiplier

import (
	"errors"
	"fmt"

	"github.com/aristath/comptroller/internal/domain"
)

// ErrInvalidState is returned when the production state cannot be decomposed.
var ErrInvalidState = errors.New("invalid production state")

// Breakdown is the global multiplier split into its three factors.
// Permanent * Tiered * Temporary equals the host's global multiplier.
type Breakdown struct {
	PermanentExcludingTiered float64 `json:"permanent_excluding_tiered"`
	TieredCompounding        float64 `json:"tiered_compounding"`
	Temporary                float64 `json:"temporary"`
}

// Global recombines the three factors.
func (b Breakdown) Global() float64 {
	return b.PermanentExcludingTiered * b.TieredCompounding * b.Temporary
}

// Permanent is the multiplier with the temporary bonus removed.
func (b Breakdown) Permanent() float64 {
	return b.PermanentExcludingTiered * b.TieredCompounding
}

// TieredCompoundingFactor is the product of (1 + progress*factor) over owned
// tiers times every owned malus penalty.
func TieredCompoundingFactor(progress float64, owned domain.NameSet, tiers []Tier, maluses []Malus) float64 {
	factor := 1.0
	for _, t := range tiers {
		if owned.Has(t.Name) {
			factor *= 1 + progress*t.Factor
		}
	}
	for _, m := range maluses {
		if owned.Has(m.Name) {
			factor *= m.Penalty
		}
	}
	return factor
}

// PermanentMultiplierExcludingTiers removes the temporary bonus and the owned
// tier bonuses from the global multiplier, leaving the additive pool that
// flavor upgrades contribute to.
func PermanentMultiplierExcludingTiers(state domain.ProductionState, owned domain.NameSet, tiers []Tier, maluses []Malus) (float64, error) {
	if err := checkState(state); err != nil {
		return 0, err
	}
	tiered := TieredCompoundingFactor(state.TierProgress, owned, tiers, maluses)
	if tiered <= 0 || !finite(tiered) {
		return 0, fmt.Errorf("%w: tier factor %v", ErrInvalidState, tiered)
	}
	return state.GlobalCpsMultiplier / state.ActiveTemporaryMultiplier / tiered, nil
}

func checkState(state domain.ProductionState) error {
	if state.GlobalCpsMultiplier <= 0 || !finite(state.GlobalCpsMultiplier) {
		return fmt.Errorf("%w: global multiplier %v", ErrInvalidState, state.GlobalCpsMultiplier)
	}
	if state.ActiveTemporaryMultiplier <= 0 || !finite(state.ActiveTemporaryMultiplier) {
		return fmt.Errorf("%w: temporary multiplier %v", ErrInvalidState, state.ActiveTemporaryMultiplier)
	}
	if state.TierProgress < 0 || !finite(state.TierProgress) {
		return fmt.Errorf("%w: tier progress %v", ErrInvalidState, state.TierProgress)
	}
	return nil
}

// Resolver decomposes production states against a constants table.
type Resolver struct {
	table Table
}

// NewResolver creates a resolver over table.
func NewResolver(table Table) *Resolver {
	return &Resolver{table: table}
}

// Table returns the constants the resolver was built with.
func (r *Resolver) Table() Table {
	return r.table
}

// Resolve splits the state's global multiplier.
func (r *Resolver) Resolve(state domain.ProductionState, owned domain.NameSet) (Breakdown, error) {
	permanent, err := PermanentMultiplierExcludingTiers(state, owned, r.table.Tiers, r.table.Maluses)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		PermanentExcludingTiered: permanent,
		TieredCompounding:        TieredCompoundingFactor(state.TierProgress, owned, r.table.Tiers, r.table.Maluses),
		Temporary:                state.ActiveTemporaryMultiplier,
	}, nil
}

// TierFactor returns the factor of the named tier upgrade.
func (r *Resolver) TierFactor(name string) (float64, bool) {
	return r.table.TierFactor(name)
}

// ReserveSize is the bank that maximises the lucky payout at base production.
func (r *Resolver) ReserveSize(state domain.ProductionState, owned domain.NameSet) float64 {
	cps := state.TotalCps
	if state.ActiveTemporaryMultiplier > 0 {
		cps /= state.ActiveTemporaryMultiplier
	}
	rc := r.table.Reserve
	reserve := cps * rc.CapSeconds / rc.PayoutFraction
	if rc.FrenzyUpgrade != "" && owned.Has(rc.FrenzyUpgrade) {
		reserve *= rc.FrenzyFactor
	}
	return reserve
}

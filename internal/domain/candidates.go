package domain

import (
	"fmt"
	"math"
)

// PurchaseCandidate is something the store sells: a Building or an Upgrade.
// The interface is sealed; switch on the concrete type to branch.
type PurchaseCandidate interface {
	CandidateName() string
	CandidatePrice() float64
	purchaseCandidate()
}

// BuildingRef identifies a building without carrying its figures.
type BuildingRef struct {
	ID   int    `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// Building is one building type in the store.
type Building struct {
	ID              int     `json:"id" msgpack:"id"`
	Name            string  `json:"name" msgpack:"name"`
	Single          string  `json:"single" msgpack:"single"`
	Plural          string  `json:"plural" msgpack:"plural"`
	BasePrice       float64 `json:"base_price" msgpack:"base_price"`
	PriceGrowthRate float64 `json:"price_growth_rate" msgpack:"price_growth_rate"`
	OwnedCount      int     `json:"owned_count" msgpack:"owned_count"`
	StoredCps       float64 `json:"stored_cps" msgpack:"stored_cps"` // per unit, before the global multiplier
	Price           float64 `json:"price" msgpack:"price"`           // host's current price, informational
	Incomplete      bool    `json:"incomplete,omitempty" msgpack:"incomplete"`
}

func (Building) purchaseCandidate() {}

// CandidateName implements PurchaseCandidate.
func (b Building) CandidateName() string { return b.Name }

// CandidatePrice implements PurchaseCandidate with the price of the next unit.
func (b Building) CandidatePrice() float64 { return b.UnitPrice(b.OwnedCount) }

// UnitPrice is the price of the unit bought when n are already owned.
func (b Building) UnitPrice(n int) float64 {
	return b.BasePrice * math.Pow(b.PriceGrowthRate, float64(n))
}

// TotalCps is the base production of every owned unit.
func (b Building) TotalCps() float64 {
	return b.StoredCps * float64(b.OwnedCount)
}

// Ref returns the building's reference.
func (b Building) Ref() BuildingRef {
	return BuildingRef{ID: b.ID, Name: b.Name}
}

// Label names count units, e.g. "1 farm" or "3 farms".
func (b Building) Label(count int) string {
	single, plural := b.Single, b.Plural
	if single == "" {
		single = b.Name
	}
	if plural == "" {
		plural = single + "s"
	}
	if count == 1 {
		return fmt.Sprintf("%d %s", count, single)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// UpgradeKind classifies an upgrade's effect on production.
type UpgradeKind int

const (
	// UpgradeUnknown has no effect metadata the engine can value.
	UpgradeUnknown UpgradeKind = iota
	// UpgradeFlavor adds a declared percentage to the shared additive pool.
	UpgradeFlavor
	// UpgradeTierBonus multiplies production by (1 + tier progress * factor).
	UpgradeTierBonus
)

var upgradeKindNames = map[UpgradeKind]string{
	UpgradeUnknown:   "unknown",
	UpgradeFlavor:    "flavor",
	UpgradeTierBonus: "tier_bonus",
}

func (k UpgradeKind) String() string {
	if name, ok := upgradeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the kind by name.
func (k UpgradeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name; anything unrecognised is UpgradeUnknown.
func (k *UpgradeKind) UnmarshalText(text []byte) error {
	*k = UpgradeUnknown
	for kind, name := range upgradeKindNames {
		if name == string(text) {
			*k = kind
		}
	}
	return nil
}

// Upgrade is a purchasable upgrade with whatever effect metadata the host declares.
type Upgrade struct {
	ID                int         `json:"id" msgpack:"id"`
	Name              string      `json:"name" msgpack:"name"`
	Description       string      `json:"description" msgpack:"description"`
	BasePrice         float64     `json:"base_price" msgpack:"base_price"`
	Kind              UpgradeKind `json:"kind" msgpack:"kind"`
	DeclaredMagnitude *float64    `json:"declared_magnitude,omitempty" msgpack:"declared_magnitude"` // fraction, 0.05 = +5%
	Incomplete        bool        `json:"incomplete,omitempty" msgpack:"incomplete"`
}

func (Upgrade) purchaseCandidate() {}

// CandidateName implements PurchaseCandidate.
func (u Upgrade) CandidateName() string { return u.Name }

// CandidatePrice implements PurchaseCandidate.
func (u Upgrade) CandidatePrice() float64 { return u.BasePrice }

// Magnitude returns the declared effect magnitude, if any.
func (u Upgrade) Magnitude() (float64, bool) {
	if u.DeclaredMagnitude == nil {
		return 0, false
	}
	return *u.DeclaredMagnitude, true
}

// Fraction is a helper for building declared magnitudes.
func Fraction(v float64) *float64 {
	return &v
}

// Package multiplier splits the host's global production multiplier into its
// permanent, tiered and temporary parts.
package multiplier

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed constants.yaml
var defaultConstants []byte

// Tier is a compounding tier bonus upgrade.
type Tier struct {
	Name   string  `yaml:"name" json:"name"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// Malus is a permanent production penalty.
type Malus struct {
	Name    string  `yaml:"name" json:"name"`
	Penalty float64 `yaml:"penalty" json:"penalty"`
}

// ReserveConstants tune the recommended cash reserve.
type ReserveConstants struct {
	CapSeconds     float64 `yaml:"cap_seconds" json:"cap_seconds"`
	PayoutFraction float64 `yaml:"payout_fraction" json:"payout_fraction"`
	FrenzyFactor   float64 `yaml:"frenzy_factor" json:"frenzy_factor"`
	FrenzyUpgrade  string  `yaml:"frenzy_upgrade" json:"frenzy_upgrade"`
}

// Table is the versioned set of host constants the resolver needs.
type Table struct {
	VerifiedVersion string           `yaml:"verified_version" json:"verified_version"`
	Tiers           []Tier           `yaml:"tiers" json:"tiers"`
	Maluses         []Malus          `yaml:"maluses" json:"maluses"`
	Reserve         ReserveConstants `yaml:"reserve" json:"reserve"`
}

// DefaultTable returns the constants compiled into the binary.
func DefaultTable() (Table, error) {
	return ParseTable(defaultConstants)
}

// LoadTable reads an override file, or the compiled-in table when path is empty.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read constants file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML constants table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("failed to parse constants: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks that every factor keeps the multipliers positive and finite.
func (t Table) Validate() error {
	seen := make(map[string]bool)
	for _, tier := range t.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier with empty name")
		}
		if seen[tier.Name] {
			return fmt.Errorf("duplicate tier %q", tier.Name)
		}
		seen[tier.Name] = true
		if tier.Factor < 0 || !finite(tier.Factor) {
			return fmt.Errorf("tier %q: factor must be non-negative, got %v", tier.Name, tier.Factor)
		}
	}
	for _, m := range t.Maluses {
		if m.Name == "" {
			return fmt.Errorf("malus with empty name")
		}
		if m.Penalty <= 0 || !finite(m.Penalty) {
			return fmt.Errorf("malus %q: penalty must be positive, got %v", m.Name, m.Penalty)
		}
	}
	r := t.Reserve
	if r.CapSeconds <= 0 || r.PayoutFraction <= 0 || r.FrenzyFactor <= 0 {
		return fmt.Errorf("reserve constants must be positive")
	}
	return nil
}

// TierFactor returns the factor of the named tier.
func (t Table) TierFactor(name string) (float64, bool) {
	for _, tier := range t.Tiers {
		if tier.Name == name {
			return tier.Factor, true
		}
	}
	return 0, false
}

// IsTier reports whether name is a compounding tier upgrade.
func (t Table) IsTier(name string) bool {
	_, ok := t.TierFactor(name)
	return ok
}

// Stale reports whether the host runs a version other than the one the table was checked against.
func (t Table) Stale(hostVersion string) bool {
	return hostVersion != "" && t.VerifiedVersion != "" && hostVersion != t.VerifiedVersion
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Package domain holds the read-only game-state values the valuation engine works on.
// Every value here is a snapshot of one host tick; nothing in the engine mutates it.
package domain

import (
	"errors"
	"sort"
	"time"
)

// ErrNoSnapshot is returned when no host snapshot has been ingested yet.
var ErrNoSnapshot = errors.New("no snapshot ingested")

// ProductionState is the host's production figures at the time of the snapshot.
//
// GlobalCpsMultiplier already includes every permanent and temporary bonus;
// GlobalCpsMultiplier / ActiveTemporaryMultiplier is the permanent-only multiplier.
type ProductionState struct {
	TotalCps                  float64         `json:"total_cps" msgpack:"total_cps"`
	BaseCpsByBuilding         map[int]float64 `json:"base_cps_by_building" msgpack:"base_cps_by_building"`
	ActiveTemporaryMultiplier float64         `json:"active_temporary_multiplier" msgpack:"active_temporary_multiplier"` // 1 = inactive
	GlobalCpsMultiplier       float64         `json:"global_cps_multiplier" msgpack:"global_cps_multiplier"`
	TierProgress              float64         `json:"tier_progress" msgpack:"tier_progress"` // milk progress scaling tier bonuses
}

// NameSet is a set of upgrade names.
type NameSet map[string]struct{}

// NewNameSet builds a set from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set has nothing.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s NameSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Snapshot is one internally consistent read of the host game.
type Snapshot struct {
	ID               string          `json:"id" msgpack:"id"`
	ReceivedAt       time.Time       `json:"received_at" msgpack:"received_at"`
	HostVersion      string          `json:"host_version" msgpack:"host_version"`
	Cookies          float64         `json:"cookies" msgpack:"cookies"`
	State            ProductionState `json:"state" msgpack:"state"`
	Buildings        []Building      `json:"buildings" msgpack:"buildings"`
	StoreUpgrades    []Upgrade       `json:"store_upgrades" msgpack:"store_upgrades"`
	OwnedUpgrades    NameSet         `json:"-" msgpack:"owned_upgrades"`
	FrenzyTicks      int             `json:"frenzy_ticks" msgpack:"frenzy_ticks"`
	FrenzyPower      float64         `json:"frenzy_power" msgpack:"frenzy_power"`
	ClickFrenzyTicks int             `json:"click_frenzy_ticks" msgpack:"click_frenzy_ticks"`
	FPS              float64         `json:"fps" msgpack:"fps"`
	ComputedMouseCps float64         `json:"computed_mouse_cps" msgpack:"computed_mouse_cps"`
	Warnings         []string        `json:"warnings,omitempty" msgpack:"warnings"`
}

// FrenzyActive reports whether a temporary production bonus is running.
func (s Snapshot) FrenzyActive() bool {
	return s.FrenzyTicks > 0 && s.FrenzyPower > 0
}

// FrenzySeconds is the remaining frenzy time in seconds.
func (s Snapshot) FrenzySeconds() float64 {
	return s.ticksToSeconds(s.FrenzyTicks)
}

// ClickFrenzySeconds is the remaining click-frenzy time in seconds.
func (s Snapshot) ClickFrenzySeconds() float64 {
	return s.ticksToSeconds(s.ClickFrenzyTicks)
}

func (s Snapshot) ticksToSeconds(ticks int) float64 {
	if ticks <= 0 || s.FPS <= 0 {
		return 0
	}
	return float64(ticks) / s.FPS
}

// Building looks a building up by id.
func (s Snapshot) Building(id int) (Building, bool) {
	for _, b := range s.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return Building{}, false
}

// Upgrade looks a store upgrade up by id.
func (s Snapshot) Upgrade(id int) (Upgrade, bool) {
	for _, u := range s.StoreUpgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// OwnedNames lists owned upgrades for serialization.
func (s Snapshot) OwnedNames() []string {
	return s.OwnedUpgrades.Names()
}

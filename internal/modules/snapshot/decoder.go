// Package snapshot decodes host game state and keeps the latest snapshot.
package snapshot

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
)

// ErrMalformed is returned for input that is not a usable host snapshot.
var ErrMalformed = errors.New("malformed snapshot")

// DefaultPriceGrowth is the host's per-unit price increase when it does not report one.
const DefaultPriceGrowth = 1.15

// Decoder turns host JSON into snapshots. Missing or malformed fields become
// unknown values with a warning; only invalid JSON or a missing production
// rate fail.
type Decoder struct {
	table multiplier.Table
}

// NewDecoder creates a decoder that classifies tier upgrades with table.
func NewDecoder(table multiplier.Table) *Decoder {
	return &Decoder{table: table}
}

// decodeState accumulates warnings while reading one message.
type decodeState struct {
	warnings []string
}

func (d *decodeState) warn(format string, args ...interface{}) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

// number reads a finite numeric field. ok is false when the field is absent or not a number.
func number(r gjson.Result) (float64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	v := r.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (d *decodeState) optional(root gjson.Result, path string, fallback float64) float64 {
	r := root.Get(path)
	if !r.Exists() {
		return fallback
	}
	v, ok := number(r)
	if !ok {
		d.warn("%s is not a number", path)
		return fallback
	}
	return v
}

// Decode parses one host message.
func (dec *Decoder) Decode(data []byte) (domain.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return domain.Snapshot{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return domain.Snapshot{}, fmt.Errorf("%w: expected an object", ErrMalformed)
	}
	cps, ok := number(root.Get("cookiesPs"))
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: cookiesPs missing or not a number", ErrMalformed)
	}

	st := &decodeState{}
	if cps < 0 {
		st.warn("cookiesPs negative, treated as 0")
		cps = 0
	}

	snap := domain.Snapshot{
		HostVersion:      root.Get("version").String(),
		Cookies:          st.optional(root, "cookies", 0),
		FrenzyTicks:      int(st.optional(root, "frenzy", 0)),
		FrenzyPower:      st.optional(root, "frenzyPower", 1),
		ClickFrenzyTicks: int(st.optional(root, "clickFrenzy", 0)),
		FPS:              st.optional(root, "fps", 30),
		ComputedMouseCps: st.optional(root, "computedMouseCps", 0),
	}

	global := 1.0
	if r := root.Get("globalCpsMult"); !r.Exists() {
		st.warn("globalCpsMult missing, assuming 1")
	} else if v, ok := number(r); !ok || v <= 0 {
		st.warn("globalCpsMult invalid, assuming 1")
	} else {
		global = v
	}

	progress := st.optional(root, "milkProgress", 0)
	if progress < 0 {
		st.warn("milkProgress negative, treated as 0")
		progress = 0
	}

	growth := DefaultPriceGrowth
	if r := root.Get("priceIncrease"); r.Exists() {
		if v, ok := number(r); ok && v > 1 {
			growth = v
		} else {
			st.warn("priceIncrease invalid, assuming %v", DefaultPriceGrowth)
		}
	}

	temporary := 1.0
	if snap.FrenzyTicks > 0 && snap.FrenzyPower > 0 {
		temporary = snap.FrenzyPower
	}

	snap.Buildings = dec.decodeBuildings(root.Get("objects"), growth, st)
	snap.StoreUpgrades = dec.decodeUpgrades(root.Get("upgradesInStore"), st)
	snap.OwnedUpgrades = domain.NewNameSet()
	for _, name := range root.Get("ownedUpgrades").Array() {
		if name.Type == gjson.String {
			snap.OwnedUpgrades[name.String()] = struct{}{}
		}
	}

	base := make(map[int]float64, len(snap.Buildings))
	for _, b := range snap.Buildings {
		base[b.ID] = b.TotalCps()
	}
	snap.State = domain.ProductionState{
		TotalCps:                  cps,
		BaseCpsByBuilding:         base,
		ActiveTemporaryMultiplier: temporary,
		GlobalCpsMultiplier:       global,
		TierProgress:              progress,
	}

	if dec.table.Stale(snap.HostVersion) {
		st.warn("host version %s differs from verified version %s", snap.HostVersion, dec.table.VerifiedVersion)
	}
	snap.Warnings = st.warnings
	return snap, nil
}

func (dec *Decoder) decodeBuildings(objects gjson.Result, growth float64, st *decodeState) []domain.Building {
	if objects.Exists() && !objects.IsArray() {
		st.warn("objects is not an array")
		return nil
	}

	var out []domain.Building
	for i, o := range objects.Array() {
		b := domain.Building{
			ID:              i,
			Name:            o.Get("name").String(),
			Single:          o.Get("single").String(),
			Plural:          o.Get("plural").String(),
			PriceGrowthRate: growth,
		}
		if id, ok := number(o.Get("id")); ok {
			b.ID = int(id)
		}
		if b.Name == "" {
			b.Name = fmt.Sprintf("building %d", b.ID)
		}

		if v, ok := number(o.Get("basePrice")); ok && v > 0 {
			b.BasePrice = v
		} else {
			b.Incomplete = true
		}
		if v, ok := number(o.Get("amount")); ok && v >= 0 {
			b.OwnedCount = int(v)
		} else {
			b.Incomplete = true
		}
		if v, ok := number(o.Get("storedCps")); ok && v >= 0 {
			b.StoredCps = v
		} else {
			b.Incomplete = true
		}
		if v, ok := number(o.Get("price")); ok {
			b.Price = v
		} else {
			b.Price = b.UnitPrice(b.OwnedCount)
		}

		if b.Incomplete {
			st.warn("building %q has missing or invalid fields", b.Name)
		}
		out = append(out, b)
	}
	return out
}

func (dec *Decoder) decodeUpgrades(upgrades gjson.Result, st *decodeState) []domain.Upgrade {
	if upgrades.Exists() && !upgrades.IsArray() {
		st.warn("upgradesInStore is not an array")
		return nil
	}

	var out []domain.Upgrade
	for i, o := range upgrades.Array() {
		u := domain.Upgrade{
			ID:          i,
			Name:        o.Get("name").String(),
			Description: o.Get("desc").String(),
		}
		if id, ok := number(o.Get("id")); ok {
			u.ID = int(id)
		}
		if v, ok := number(o.Get("basePrice")); ok && v >= 0 {
			u.BasePrice = v
		} else {
			u.Incomplete = true
			st.warn("upgrade %q has no price", u.Name)
		}

		power, hasPower := number(o.Get("power"))
		switch {
		case dec.table.IsTier(u.Name):
			u.Kind = domain.UpgradeTierBonus
		case o.Get("type").String() == "cookie" && hasPower && power > 0:
			u.Kind = domain.UpgradeFlavor
			u.DeclaredMagnitude = domain.Fraction(power / 100)
		default:
			u.Kind = domain.UpgradeUnknown
		}
		out = append(out, u)
	}
	return out
}

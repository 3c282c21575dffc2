// Package report assembles the overlay table shown next to the game.
package report

import (
	"time"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/valuation"
)

// Report is everything the overlay renders for one snapshot.
type Report struct {
	SnapshotID  string               `json:"snapshot_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	HostVersion string               `json:"host_version"`
	Breakdown   multiplier.Breakdown `json:"breakdown"`
	Header      Header               `json:"header"`
	Buildings   []Row                `json:"buildings"`
	Upgrades    []Row                `json:"upgrades"`
	Milestone   *valuation.Milestone `json:"milestone,omitempty"`
	// MilestoneText is the rendered estimate, e.g. "about 3 hours".
	MilestoneText string `json:"milestone_text"`
	Income        Income `json:"income"`
}

// Header is the bank and production summary above the store table.
type Header struct {
	Cookies         float64 `json:"cookies"`
	CookiesText     string  `json:"cookies_text"`
	Reserve         float64 `json:"reserve"`
	ReserveText     string  `json:"reserve_text"`
	Surplus         float64 `json:"surplus"`
	SurplusText     string  `json:"surplus_text"`
	CookiesPs       float64 `json:"cookies_ps"`
	PerSecondText   string  `json:"per_second_text"`
	PerMinuteText   string  `json:"per_minute_text"`
	TimePerCookie   string  `json:"time_per_cookie"`
	Frenzy          *Banner `json:"frenzy,omitempty"`
	ClickFrenzy     *Banner `json:"click_frenzy,omitempty"`
	StaleConstants  bool    `json:"stale_constants"`
	StaleWarning    string  `json:"stale_warning,omitempty"`
	DecoderWarnings int     `json:"decoder_warnings"`
}

// Banner announces a running temporary bonus.
type Banner struct {
	Text    string  `json:"text"`
	Seconds float64 `json:"seconds"`
}

// Row is one store line with its display strings.
type Row struct {
	valuation.Evaluation
	PriceText            string `json:"price_text"`
	MinutesToEarnText    string `json:"minutes_to_earn_text"`
	IncrementalValueText string `json:"incremental_value_text"`
	MinutesToRepayText   string `json:"minutes_to_repay_text"`
	Description          string `json:"description,omitempty"`
}

// Income splits production by building, with the store upgrades that look like
// they improve each one.
type Income struct {
	Shares       []IncomeShare `json:"shares"`
	Unclassified []string      `json:"unclassified"`
}

// IncomeShare is one building's part of total production.
type IncomeShare struct {
	Building   domain.BuildingRef `json:"building"`
	OwnedCount int                `json:"owned_count"`
	Cps        float64            `json:"cps"`
	Share      valuation.Figure   `json:"share"`
	ShareText  string             `json:"share_text"`
	Upgrades   []string           `json:"upgrades"`
}

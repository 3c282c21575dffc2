package testing

import (
	"time"

	"github.com/aristath/comptroller/internal/domain"
)

// NewSnapshotFixture returns an early-game snapshot: three building types,
// one flavor upgrade, one tier bonus and one upgrade with no usable metadata.
func NewSnapshotFixture() domain.Snapshot {
	return domain.Snapshot{
		ID:          "fixture-1",
		ReceivedAt:  time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		HostVersion: "1.036",
		Cookies:     12345678,
		State: domain.ProductionState{
			TotalCps:                  484,
			BaseCpsByBuilding:         map[int]float64{0: 10, 1: 50, 2: 160},
			ActiveTemporaryMultiplier: 1,
			GlobalCpsMultiplier:       2.2,
			TierProgress:              2,
		},
		Buildings: []domain.Building{
			{ID: 0, Name: "Cursor", Single: "cursor", Plural: "cursors", BasePrice: 15, PriceGrowthRate: 1.15, OwnedCount: 100, StoredCps: 0.1, Price: 15 * 1174313.45},
			{ID: 1, Name: "Grandma", Single: "grandma", Plural: "grandmas", BasePrice: 100, PriceGrowthRate: 1.15, OwnedCount: 100, StoredCps: 0.5, Price: 100 * 1174313.45},
			{ID: 2, Name: "Farm", Single: "farm", Plural: "farms", BasePrice: 500, PriceGrowthRate: 1.15, OwnedCount: 80, StoredCps: 2, Price: 500 * 71750.88},
		},
		StoreUpgrades: []domain.Upgrade{
			{ID: 21, Name: "Sugar cookies", Description: "Cookie production multiplier +10%.", BasePrice: 5000000, Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.1)},
			{ID: 32, Name: "Kitten workers", Description: "You gain more CpS the more milk you have.", BasePrice: 9000000, Kind: domain.UpgradeTierBonus},
			{ID: 9, Name: "Cheap hoes", Description: "Farms are twice as efficient.", BasePrice: 5000, Kind: domain.UpgradeUnknown},
		},
		OwnedUpgrades: domain.NewNameSet("Kitten helpers"),
		FPS:           30,
	}
}

package valuation

import (
	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
)

// Service builds calculators for snapshots.
type Service struct {
	resolver *multiplier.Resolver
	log      zerolog.Logger
}

// NewService creates a valuation service.
func NewService(resolver *multiplier.Resolver, log zerolog.Logger) *Service {
	return &Service{
		resolver: resolver,
		log:      log.With().Str("service", "valuation").Logger(),
	}
}

// Resolver returns the multiplier resolver the service values against.
func (s *Service) Resolver() *multiplier.Resolver {
	return s.resolver
}

// CalculatorFor resolves snap's multipliers and returns a calculator over it.
func (s *Service) CalculatorFor(snap domain.Snapshot) (*Calculator, error) {
	calc, err := NewCalculator(s.resolver, snap.State, snap.OwnedUpgrades)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("snapshot_id", snap.ID).
			Float64("global_mult", snap.State.GlobalCpsMultiplier).
			Msg("Cannot value snapshot")
		return nil, err
	}
	return calc, nil
}

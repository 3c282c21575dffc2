package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/events"
)

// Store holds the latest snapshot and announces every ingest on the event bus.
type Store struct {
	decoder *Decoder
	events  *events.Manager
	log     zerolog.Logger

	mu     sync.RWMutex
	latest *domain.Snapshot
}

// NewStore creates a snapshot store
func NewStore(decoder *Decoder, eventManager *events.Manager, log zerolog.Logger) *Store {
	return &Store{
		decoder: decoder,
		events:  eventManager,
		log:     log.With().Str("service", "snapshot").Logger(),
	}
}

// IngestJSON decodes a host message and ingests it.
func (s *Store) IngestJSON(data []byte) (domain.Snapshot, error) {
	snap, err := s.decoder.Decode(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s.Ingest(snap), nil
}

// Ingest stamps snap with an id and receive time, makes it the latest snapshot
// and emits SNAPSHOT_INGESTED.
func (s *Store) Ingest(snap domain.Snapshot) domain.Snapshot {
	snap.ID = uuid.NewString()
	snap.ReceivedAt = time.Now().UTC()

	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	for _, w := range snap.Warnings {
		s.log.Warn().Str("snapshot_id", snap.ID).Msg(w)
	}
	s.log.Debug().
		Str("snapshot_id", snap.ID).
		Float64("cookies_ps", snap.State.TotalCps).
		Int("buildings", len(snap.Buildings)).
		Int("upgrades", len(snap.StoreUpgrades)).
		Msg("Snapshot ingested")

	if s.events != nil {
		published := snap
		s.events.EmitTyped("snapshot", &events.SnapshotIngestedData{
			SnapshotID:  snap.ID,
			HostVersion: snap.HostVersion,
			Cookies:     snap.Cookies,
			CookiesPs:   snap.State.TotalCps,
			Warnings:    len(snap.Warnings),
			Snapshot:    &published,
		})
	}
	return snap
}

// Latest returns the most recent snapshot, or domain.ErrNoSnapshot.
func (s *Store) Latest() (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	return *s.latest, nil
}

// Package history keeps a short, pruned record of production samples.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/comptroller/internal/domain"
)

// ErrSampleNotFound is returned when a sample id is not in the database.
var ErrSampleNotFound = errors.New("sample not found")

// Sample is one recorded production reading.
type Sample struct {
	ID            string    `json:"id"`
	SnapshotID    string    `json:"snapshot_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	HostVersion   string    `json:"host_version"`
	Cookies       float64   `json:"cookies"`
	CookiesPs     float64   `json:"cookies_ps"`
	GlobalMult    float64   `json:"global_mult"`
	TemporaryMult float64   `json:"temporary_mult"`
}

// Repository stores samples in the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Record stores a sample for snap together with its msgpack-encoded body.
func (r *Repository) Record(snap domain.Snapshot) (Sample, error) {
	recordedAt := snap.ReceivedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	sample := Sample{
		ID:            uuid.NewString(),
		SnapshotID:    snap.ID,
		RecordedAt:    recordedAt.Truncate(time.Millisecond),
		HostVersion:   snap.HostVersion,
		Cookies:       snap.Cookies,
		CookiesPs:     snap.State.TotalCps,
		GlobalMult:    snap.State.GlobalCpsMultiplier,
		TemporaryMult: snap.State.ActiveTemporaryMultiplier,
	}

	body, err := msgpack.Marshal(&snap)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO cps_samples
			(id, snapshot_id, recorded_at, host_version, cookies, cookies_ps, global_mult, temporary_mult, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sample.ID, sample.SnapshotID, sample.RecordedAt.UnixMilli(), sample.HostVersion,
		sample.Cookies, sample.CookiesPs, sample.GlobalMult, sample.TemporaryMult, body)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to insert sample: %w", err)
	}

	return sample, nil
}

// Recent returns up to limit of the newest samples, oldest first.
func (r *Repository) Recent(limit int) ([]Sample, error) {
	if limit <= 0 {
		return []Sample{}, nil
	}

	rows, err := r.db.Query(`
		SELECT id, snapshot_id, recorded_at, host_version, cookies, cookies_ps, global_mult, temporary_mult
		FROM cps_samples
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := make([]Sample, 0, limit)
	for rows.Next() {
		var s Sample
		var recordedAt int64
		if err := rows.Scan(&s.ID, &s.SnapshotID, &recordedAt, &s.HostVersion,
			&s.Cookies, &s.CookiesPs, &s.GlobalMult, &s.TemporaryMult); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.RecordedAt = time.UnixMilli(recordedAt).UTC()
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Count returns the number of stored samples.
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM cps_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes samples recorded before cutoff and returns how many went.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM cps_samples WHERE recorded_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned count: %w", err)
	}
	return deleted, nil
}

// LoadSnapshot decodes the snapshot stored with sample id.
func (r *Repository) LoadSnapshot(id string) (domain.Snapshot, error) {
	var body []byte
	err := r.db.QueryRow(`SELECT snapshot FROM cps_samples WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, ErrSampleNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(body) == 0 {
		return domain.Snapshot{}, ErrSampleNotFound
	}

	var snap domain.Snapshot
	if err := msgpack.Unmarshal(body, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

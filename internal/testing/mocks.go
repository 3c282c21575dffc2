package testing

import (
	"sync"

	"github.com/aristath/comptroller/internal/domain"
)

// MockSnapshotSource serves a fixed snapshot or error.
type MockSnapshotSource struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
	err  error
}

// NewMockSnapshotSource creates a source with no snapshot.
func NewMockSnapshotSource() *MockSnapshotSource {
	return &MockSnapshotSource{}
}

// SetSnapshot sets the snapshot Latest returns.
func (m *MockSnapshotSource) SetSnapshot(snap domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
}

// SetError makes Latest fail with err.
func (m *MockSnapshotSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Latest returns the configured snapshot, or domain.ErrNoSnapshot when none is set.
func (m *MockSnapshotSource) Latest() (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return domain.Snapshot{}, m.err
	}
	if m.snap == nil {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	return *m.snap, nil
}

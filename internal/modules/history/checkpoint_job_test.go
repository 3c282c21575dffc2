package history

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/comptroller/internal/testing"
)

type stubCheckpointer struct {
	pingErr error
	modes   []string
}

func (s *stubCheckpointer) QuickCheck(ctx context.Context) error {
	return s.pingErr
}

func (s *stubCheckpointer) WALCheckpoint(mode string) error {
	s.modes = append(s.modes, mode)
	return nil
}

func TestCheckpointJob_Run(t *testing.T) {
	db := testingpkg.NewTestDB(t, "history")
	job := NewCheckpointJob(db, zerolog.New(nil).Level(zerolog.Disabled))

	assert.Equal(t, "history_checkpoint", job.Name())
	require.NoError(t, job.Run())
}

func TestCheckpointJob_SkipsCheckpointWhenUnreachable(t *testing.T) {
	stub := &stubCheckpointer{pingErr: errors.New("closed")}
	job := NewCheckpointJob(stub, zerolog.New(nil).Level(zerolog.Disabled))

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Empty(t, stub.modes)

	stub.pingErr = nil
	require.NoError(t, job.Run())
	assert.Equal(t, []string{"TRUNCATE"}, stub.modes)
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly_scheduler_bot/internal/domain/cycle"
)

func gatheringState() *cycle.State {
	st := cycle.NewState()
	st.Welcomed = true
	dates := cycle.GenerateCandidateDatesAfter(cycle.Date{Year: 2026, Month: time.October, Day: 16}, time.Tuesday)
	st.OpenGathering(dates, "poll-1", "2026-W42")
	return st
}

// repositoryContract runs the behaviour every backend must share.
func repositoryContract(t *testing.T, repo cycle.Repository) {
	ctx := context.Background()

	_, err := repo.Load(ctx, "chan-1")
	require.ErrorIs(t, err, cycle.ErrStateNotFound)

	st := gatheringState()
	require.NoError(t, repo.Save(ctx, "chan-1", st))
	require.NoError(t, repo.Save(ctx, "chan-2", cycle.NewState()))

	got, err := repo.Load(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st.Confirm(st.CandidateDates[1])
	require.NoError(t, repo.Save(ctx, "chan-1", st))

	got, err = repo.Load(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, cycle.StatusConfirmed, got.Status)
	assert.Equal(t, cycle.Date{Year: 2026, Month: time.October, Day: 21}, *got.ConfirmedDate)

	other, err := repo.Load(ctx, "chan-2")
	require.NoError(t, err)
	assert.Equal(t, cycle.StatusIdle, other.Status)
}

func TestFileStateRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	repositoryContract(t, NewFileStateRepository(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFileStateRepository_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	repo := NewFileStateRepository(path)
	ctx := context.Background()

	_, err := repo.Load(ctx, "chan-1")
	require.ErrorIs(t, err, cycle.ErrCorruptState)

	require.NoError(t, repo.Save(ctx, "chan-1", cycle.NewState()))
	got, err := repo.Load(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, cycle.StatusIdle, got.Status)
}

func TestFileStateRepository_CorruptEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chan-1": {"status": 7}}`), 0o600))

	_, err := NewFileStateRepository(path).Load(context.Background(), "chan-1")
	assert.ErrorIs(t, err, cycle.ErrCorruptState)
}

func TestBadgerStateRepository(t *testing.T) {
	repo, err := OpenBadgerStateRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	repositoryContract(t, repo)
}

func TestBadgerStateRepository_CorruptValue(t *testing.T) {
	repo, err := OpenBadgerStateRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey("chan-1"), []byte("nope"))
	}))

	_, err = repo.Load(context.Background(), "chan-1")
	assert.ErrorIs(t, err, cycle.ErrCorruptState)
}

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/game"
	"github.com/coindelisi66/token-hunger-arena/internal/storage"
)

func makeOutcome(id string, finished time.Time, survivors ...string) game.Outcome {
	snap := arena.Snapshot{Initialized: true, Phase: arena.PhaseDone, Started: true}
	for i, name := range []string{"FOO", "PEPE123", "DOGE456"} {
		alive := false
		for _, s := range survivors {
			if s == name {
				alive = true
			}
		}
		snap.Tokens = append(snap.Tokens, arena.TokenView{ID: i + 1, Name: name, Alive: alive, Volume: int64(100 * (i + 1))})
	}
	return game.Outcome{
		ID:         id,
		StartedAt:  finished.Add(-10 * time.Minute),
		FinishedAt: finished,
		Snapshot:   snap,
	}
}

func TestSQLiteJournal_RecordAndRecent(t *testing.T) {
	db, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.RecordOutcome(ctx, makeOutcome("g1", base.Add(-time.Hour), "FOO", "DOGE456")))
	require.NoError(t, db.RecordOutcome(ctx, makeOutcome("g2", base, "PEPE123", "DOGE456")))

	got, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, "g2", got[0].ID)
	assert.Equal(t, "g1", got[1].ID)
	assert.True(t, got[0].FinishedAt.Equal(base))
	assert.True(t, got[0].StartedAt.Equal(base.Add(-10*time.Minute)))

	survivors := got[0].Snapshot.Survivors()
	require.Len(t, survivors, 2)
	assert.Equal(t, "PEPE123", survivors[0].Name)
	assert.Equal(t, arena.PhaseDone, got[0].Snapshot.Phase)
}

func TestSQLiteJournal_RecentLimit(t *testing.T) {
	db, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.RecordOutcome(ctx, makeOutcome(id, base.Add(time.Duration(i)*time.Minute), "FOO")))
	}

	got, err := db.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestSQLiteJournal_UpsertSameID(t *testing.T) {
	db, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.RecordOutcome(ctx, makeOutcome("g1", base, "FOO")))
	require.NoError(t, db.RecordOutcome(ctx, makeOutcome("g1", base.Add(time.Minute), "FOO", "PEPE123")))

	got, err := db.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Snapshot.Survivors(), 2)
}

func TestSQLiteJournal_Empty(t *testing.T) {
	db, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteJournal_StartedAtOptional(t *testing.T) {
	db, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	o := makeOutcome("g1", time.Now().UTC().Truncate(time.Second), "FOO")
	o.StartedAt = time.Time{}
	require.NoError(t, db.RecordOutcome(ctx, o))

	got, err := db.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].StartedAt.IsZero())
}

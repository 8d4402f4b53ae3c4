package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/dedup"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "gemini", "master.csv", 667)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "gemini", got.Provider)
	assert.Equal(t, "master.csv", got.OutputFile)
	assert.Equal(t, 667, got.NumBatches)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Nil(t, got.Stats, "no checkpoint yet")
}

func TestSQLite_CheckpointRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "gemini", "master.csv", 100)
	require.NoError(t, err)

	stats := dedup.Stats{
		CompletedBatches:    25,
		FailedBatches:       3,
		TotalLeads:          350,
		DuplicatesPrevented: 12,
		UniqueEmails:        350,
	}
	require.NoError(t, st.CheckpointRun(ctx, run.ID, stats))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Stats)
	assert.Equal(t, stats, *got.Stats)
	assert.Equal(t, RunStatusRunning, got.Status, "checkpoint never changes status")
}

func TestSQLite_FinishRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "anthropic", "master.csv", 50)
	require.NoError(t, err)

	stats := dedup.Stats{CompletedBatches: 50, TotalLeads: 720}
	require.NoError(t, st.FinishRun(ctx, run.ID, RunStatusComplete, stats))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 720, got.Stats.TotalLeads)
}

func TestSQLite_UnknownRunID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "no-such-run")
	assert.Error(t, err)

	assert.Error(t, st.CheckpointRun(ctx, "no-such-run", dedup.Stats{}))
	assert.Error(t, st.FinishRun(ctx, "no-such-run", RunStatusComplete, dedup.Stats{}))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for range 3 {
		_, err := st.CreateRun(ctx, "gemini", "master.csv", 10)
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = st.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "ledger.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
}

func TestRecordAndLastRun(t *testing.T) {
	store := openTestStore(t)
	ws := t.TempDir()

	run := Run{
		ID:           "run_a1b2c3d4",
		Workspace:    ws,
		StartedAt:    time.Now().Add(-time.Minute),
		Duration:     42 * time.Millisecond,
		DirsCreated:  6,
		FilesWritten: 5,
		Outcome:      OutcomeApplied,
	}
	require.NoError(t, store.RecordRun(run, nil))

	got, err := store.LastRun(ws)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 6, got.DirsCreated)
	assert.Equal(t, 5, got.FilesWritten)
	assert.Equal(t, OutcomeApplied, got.Outcome)
	assert.Equal(t, 42*time.Millisecond, got.Duration)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)
}

func TestLastRunUnknownWorkspace(t *testing.T) {
	store := openTestStore(t)

	got, err := store.LastRun(filepath.Join(t.TempDir(), "never-scaffolded"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ws := t.TempDir()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run_old", "run_mid", "run_new"} {
		run := Run{
			ID:        id,
			Workspace: ws,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Outcome:   OutcomeApplied,
		}
		require.NoError(t, store.RecordRun(run, nil))
	}

	runs, err := store.Runs(ws, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_new", runs[0].ID)
	assert.Equal(t, "run_mid", runs[1].ID)

	count, err := store.RunCount(ws)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRunsIsolatedByWorkspace(t *testing.T) {
	store := openTestStore(t)
	wsA := t.TempDir()
	wsB := t.TempDir()

	require.NoError(t, store.RecordRun(Run{
		ID: "run_a", Workspace: wsA, StartedAt: time.Now(), Outcome: OutcomeApplied,
	}, nil))
	require.NoError(t, store.RecordRun(Run{
		ID: "run_b", Workspace: wsB, StartedAt: time.Now(), Outcome: OutcomeRepaired,
	}, nil))

	runs, err := store.Runs(wsA, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run_a", runs[0].ID)
}

func TestWorkspaceLookupIgnoresPathSpelling(t *testing.T) {
	store := openTestStore(t)
	ws := t.TempDir()

	require.NoError(t, store.RecordRun(Run{
		ID: "run_x", Workspace: ws, StartedAt: time.Now(), Outcome: OutcomeApplied,
	}, nil))

	// Same directory reached through a redundant path segment.
	got, err := store.LastRun(filepath.Join(ws, "scraper", ".."))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run_x", got.ID)
}

func TestFileDigestsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ws := t.TempDir()

	run := Run{ID: "run_digests", Workspace: ws, StartedAt: time.Now(), Outcome: OutcomeApplied}
	files := []FileDigest{
		{RunID: run.ID, Path: "README.md", Digest: "aaaa", Bytes: 100},
		{RunID: run.ID, Path: ".gitignore", Digest: "bbbb", Bytes: 50},
	}
	require.NoError(t, store.RecordRun(run, files))

	digests, err := store.FileDigests(run.ID)
	require.NoError(t, err)
	require.Len(t, digests, 2)
	assert.Equal(t, "aaaa", digests["README.md"].Digest)
	assert.Equal(t, 50, digests[".gitignore"].Bytes)
}

func TestDefaultPathHonorsXDGStateHome(t *testing.T) {
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	assert.Equal(t, filepath.Join(stateHome, "mergelytics", "ledger.db"), DefaultPath())
}

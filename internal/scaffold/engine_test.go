package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergelytics/internal/assets"
	"mergelytics/internal/layout"
	"mergelytics/internal/ledger"
)

func TestApplyCreatesSkeleton(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	result, err := engine.Apply(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.RunID, "run_"))
	assert.Equal(t, len(layout.Dirs()), result.DirsCreated)
	assert.Equal(t, len(layout.Files()), result.FilesWritten)
	assert.Equal(t, 0, result.Unchanged)
	assert.Empty(t, result.Warnings)

	for _, dir := range layout.Dirs() {
		info, err := os.Stat(layout.Abs(ws, dir))
		require.NoError(t, err, "missing directory %s", dir)
		assert.True(t, info.IsDir(), "%s should be a directory", dir)
	}

	for _, file := range layout.Files() {
		abs := layout.Abs(ws, file)
		info, err := os.Stat(abs)
		require.NoError(t, err, "missing file %s", file)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), "wrong mode on %s", file)

		want, err := assets.Payload(file)
		require.NoError(t, err)
		got, err := os.ReadFile(abs)
		require.NoError(t, err)
		assert.Equal(t, want, got, "content mismatch for %s", file)

		assert.Equal(t, assets.DigestBytes(want), result.Digests[file])
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	_, err := engine.Apply(context.Background())
	require.NoError(t, err)

	result, err := engine.Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.DirsCreated)
	assert.Equal(t, len(layout.Files()), result.FilesWritten)
	assert.Equal(t, len(layout.Files()), result.Unchanged)
}

func TestApplyRestoresDriftedFiles(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	_, err := engine.Apply(context.Background())
	require.NoError(t, err)

	readme := layout.Abs(ws, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# hacked\n"), 0644))

	result, err := engine.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(layout.Files())-1, result.Unchanged)

	want, err := assets.Payload("README.md")
	require.NoError(t, err)
	got, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyPreservesUserContent(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	_, err := engine.Apply(context.Background())
	require.NoError(t, err)

	userFile := filepath.Join(ws, "scraper", "scraper.py")
	require.NoError(t, os.WriteFile(userFile, []byte("print('hi')\n"), 0644))
	userDir := filepath.Join(ws, "notes")
	require.NoError(t, os.Mkdir(userDir, 0755))

	_, err = engine.Apply(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(userFile)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(content))
	info, err := os.Stat(userDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestApplyDirectoryConflictAbortsBeforeFiles(t *testing.T) {
	ws := t.TempDir()

	// A regular file squats on the first skeleton directory.
	require.NoError(t, os.WriteFile(filepath.Join(ws, "scraper"), []byte("not a dir"), 0644))

	engine := New(DefaultConfig(ws))
	_, err := engine.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraper")

	// The directory phase failed on its first entry, so nothing else
	// was provisioned.
	_, statErr := os.Stat(filepath.Join(ws, "dashboard"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(ws, "README.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyFileConflictSurfacesError(t *testing.T) {
	ws := t.TempDir()

	// A directory squats on a skeleton file path.
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "README.md"), 0755))

	engine := New(DefaultConfig(ws))
	_, err := engine.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "README.md")

	// Files earlier in the manifest stay written; there is no rollback.
	_, statErr := os.Stat(filepath.Join(ws, "scraper", "requirements.txt"))
	assert.NoError(t, statErr)
}

func TestApplyCanceledContext(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Apply(ctx)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(ws)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanFreshWorkspace(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	plan, err := engine.Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Entries, len(layout.Entries()))
	counts := plan.Counts()
	assert.Equal(t, len(layout.Entries()), counts[ActionCreate])
	assert.Empty(t, plan.Conflicts())

	// Dry run leaves the workspace untouched.
	entries, err := os.ReadDir(ws)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanAfterApply(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	_, err := engine.Apply(context.Background())
	require.NoError(t, err)

	plan, err := engine.Plan(context.Background())
	require.NoError(t, err)

	counts := plan.Counts()
	assert.Equal(t, len(layout.Dirs()), counts[ActionExists])
	assert.Equal(t, len(layout.Files()), counts[ActionUnchanged])
}

func TestPlanDetectsDriftAndConflicts(t *testing.T) {
	ws := t.TempDir()
	engine := New(DefaultConfig(ws))

	_, err := engine.Apply(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(layout.Abs(ws, ".gitignore"), []byte("drifted\n"), 0644))
	require.NoError(t, os.Remove(layout.Abs(ws, "docs/SETUP.md")))
	require.NoError(t, os.RemoveAll(layout.Abs(ws, ".github/workflows")))
	require.NoError(t, os.WriteFile(layout.Abs(ws, ".github/workflows"), []byte("squatter"), 0644))

	plan, err := engine.Plan(context.Background())
	require.NoError(t, err)

	counts := plan.Counts()
	assert.Equal(t, 1, counts[ActionOverwrite])
	assert.Equal(t, 1, counts[ActionCreate])
	assert.Equal(t, 1, counts[ActionConflict])

	conflicts := plan.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, ".github/workflows", conflicts[0].Path)
}

func TestApplyRecordsRunInLedger(t *testing.T) {
	ws := t.TempDir()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	config := DefaultConfig(ws)
	config.Ledger = store
	engine := New(config)

	result, err := engine.Apply(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	run, err := store.LastRun(ws)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, len(layout.Files()), run.FilesWritten)
	assert.Equal(t, ledger.OutcomeApplied, run.Outcome)

	digests, err := store.FileDigests(run.ID)
	require.NoError(t, err)
	require.Len(t, digests, len(layout.Files()))
	for path, want := range result.Digests {
		assert.Equal(t, want, digests[path].Digest)
	}
}

func TestApplyLedgerFailureIsWarningOnly(t *testing.T) {
	ws := t.TempDir()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	config := DefaultConfig(ws)
	config.Ledger = store
	engine := New(config)

	result, err := engine.Apply(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "ledger")

	// The workspace itself is still fully provisioned.
	_, statErr := os.Stat(layout.Abs(ws, "README.md"))
	assert.NoError(t, statErr)
}

func TestApplyProgressUpdates(t *testing.T) {
	t.Run("drained channel sees completion", func(t *testing.T) {
		ws := t.TempDir()
		config := DefaultConfig(ws)
		config.ProgressChan = make(chan Progress, 64)
		engine := New(config)

		_, err := engine.Apply(context.Background())
		require.NoError(t, err)
		close(config.ProgressChan)

		var last Progress
		count := 0
		for p := range config.ProgressChan {
			last = p
			count++
		}
		require.Greater(t, count, len(layout.Entries()))
		assert.Equal(t, "complete", last.Phase)
		assert.Equal(t, 1.0, last.Percent)
	})

	t.Run("full channel never blocks", func(t *testing.T) {
		ws := t.TempDir()
		config := DefaultConfig(ws)
		config.ProgressChan = make(chan Progress, 1)
		engine := New(config)

		_, err := engine.Apply(context.Background())
		require.NoError(t, err)
	})
}

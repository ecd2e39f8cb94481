// Package scaffold provisions the Mergelytics workspace skeleton.
// The engine creates the directory tree first and writes files second,
// in manifest order, so a failed run never leaves a skeleton file
// without its parent directory. File writes are atomic per file via a
// temp-and-rename; there is no rollback across entries.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"mergelytics/internal/assets"
	"mergelytics/internal/layout"
	"mergelytics/internal/ledger"
)

// Action classifies what the engine will do, or would do, to one entry.
type Action string

const (
	ActionCreate    Action = "create"    // entry does not exist yet
	ActionOverwrite Action = "overwrite" // file exists with different content
	ActionUnchanged Action = "unchanged" // file exists with pristine content
	ActionExists    Action = "exists"    // directory already present
	ActionConflict  Action = "conflict"  // entry exists with the wrong kind
)

// Progress is one update during an apply.
type Progress struct {
	Phase   string  // "dirs", "files", "ledger", "complete"
	Message string  // human-readable status
	Percent float64 // 0.0 - 1.0
	IsError bool
}

// Config holds engine configuration.
type Config struct {
	Workspace    string
	Ledger       *ledger.Store // nil disables run recording
	Logger       *zap.Logger
	ProgressChan chan Progress // non-blocking; nil disables updates
}

// DefaultConfig returns engine defaults for a workspace.
func DefaultConfig(workspace string) Config {
	if workspace == "" {
		workspace, _ = os.Getwd()
	}
	return Config{Workspace: workspace}
}

// PlanEntry describes one manifest entry and the action it needs.
type PlanEntry struct {
	Path   string      `json:"path"`
	Kind   layout.Kind `json:"kind"`
	Action Action      `json:"action"`
	Bytes  int         `json:"bytes,omitempty"` // payload size for files
}

// Plan is a dry-run view of an apply against the current workspace.
type Plan struct {
	Workspace string      `json:"workspace"`
	Entries   []PlanEntry `json:"entries"`
}

// Counts tallies entries per action.
func (p *Plan) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, e := range p.Entries {
		counts[e.Action]++
	}
	return counts
}

// Conflicts returns the entries whose on-disk kind blocks an apply.
func (p *Plan) Conflicts() []PlanEntry {
	var conflicts []PlanEntry
	for _, e := range p.Entries {
		if e.Action == ActionConflict {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// Result reports what an apply did.
type Result struct {
	RunID        string
	Workspace    string
	DirsCreated  int // directories newly created, not preexisting ones
	FilesWritten int
	Unchanged    int // files whose prior content already matched
	Digests      map[string]string
	Warnings     []string
	Duration     time.Duration
}

// Engine provisions workspaces.
type Engine struct {
	config Config
	logger *zap.Logger
}

// New creates an engine. A nil logger is replaced with a no-op logger.
func New(config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{config: config, logger: logger}
}

// Plan inspects the workspace and reports what Apply would do, without
// touching the filesystem.
func (e *Engine) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{
		Workspace: e.config.Workspace,
		Entries:   make([]PlanEntry, 0, len(layout.Entries())),
	}

	for _, dir := range layout.Dirs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := PlanEntry{Path: dir, Kind: layout.KindDir, Action: ActionCreate}
		if info, err := os.Stat(layout.Abs(e.config.Workspace, dir)); err == nil {
			if info.IsDir() {
				entry.Action = ActionExists
			} else {
				entry.Action = ActionConflict
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	for _, file := range layout.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := assets.Payload(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load payload for %s: %w", file, err)
		}

		entry := PlanEntry{Path: file, Kind: layout.KindFile, Action: ActionCreate, Bytes: len(payload)}
		abs := layout.Abs(e.config.Workspace, file)
		if info, err := os.Stat(abs); err == nil {
			if info.IsDir() {
				entry.Action = ActionConflict
			} else if existing, err := os.ReadFile(abs); err == nil && bytes.Equal(existing, payload) {
				entry.Action = ActionUnchanged
			} else {
				entry.Action = ActionOverwrite
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	return plan, nil
}

// Apply provisions the skeleton: every directory first, then every file,
// both in manifest order. The first error aborts the run and surfaces
// the underlying failure; entries already written stay on disk.
func (e *Engine) Apply(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	result := &Result{
		RunID:     fmt.Sprintf("run_%s", uuid.New().String()[:8]),
		Workspace: e.config.Workspace,
		Digests:   make(map[string]string),
		Warnings:  make([]string, 0),
	}

	dirs := layout.Dirs()
	files := layout.Files()
	total := float64(len(dirs) + len(files) + 1)
	position := 0

	e.sendProgress("dirs", "Creating directory structure...", 0.0)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs := layout.Abs(e.config.Workspace, dir)
		preexisting := false
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			preexisting = true
		}

		if err := os.MkdirAll(abs, 0755); err != nil {
			e.sendError(fmt.Sprintf("Failed to create %s", dir))
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if !preexisting {
			result.DirsCreated++
			e.logger.Debug("created directory", zap.String("path", dir))
		}

		position++
		e.sendProgress("dirs", fmt.Sprintf("Created %s", dir), float64(position)/total)
	}

	e.sendProgress("files", "Writing project files...", float64(position)/total)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := assets.Payload(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load payload for %s: %w", file, err)
		}

		abs := layout.Abs(e.config.Workspace, file)
		if existing, err := os.ReadFile(abs); err == nil && bytes.Equal(existing, payload) {
			result.Unchanged++
		}

		if err := atomic.WriteFile(abs, bytes.NewReader(payload)); err != nil {
			e.sendError(fmt.Sprintf("Failed to write %s", file))
			return nil, fmt.Errorf("failed to write %s: %w", file, err)
		}
		// The rename-based write leaves the temp file's restrictive mode
		// on first create.
		if err := os.Chmod(abs, 0644); err != nil {
			return nil, fmt.Errorf("failed to set mode on %s: %w", file, err)
		}

		result.FilesWritten++
		result.Digests[file] = assets.DigestBytes(payload)
		e.logger.Debug("wrote file", zap.String("path", file), zap.Int("bytes", len(payload)))

		position++
		e.sendProgress("files", fmt.Sprintf("Wrote %s", file), float64(position)/total)
	}

	result.Duration = time.Since(startTime)

	e.sendProgress("ledger", "Recording run...", float64(position)/total)
	e.recordRun(result)

	e.sendProgress("complete", "Workspace ready", 1.0)
	e.logger.Info("scaffold applied",
		zap.String("run_id", result.RunID),
		zap.String("workspace", result.Workspace),
		zap.Int("dirs_created", result.DirsCreated),
		zap.Int("files_written", result.FilesWritten),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// recordRun persists the run to the ledger. Ledger failures degrade to
// warnings; the workspace on disk is already correct.
func (e *Engine) recordRun(result *Result) {
	if e.config.Ledger == nil {
		return
	}

	workspace, err := filepath.Abs(e.config.Workspace)
	if err != nil {
		workspace = filepath.Clean(e.config.Workspace)
	}

	run := ledger.Run{
		ID:           result.RunID,
		Workspace:    workspace,
		StartedAt:    time.Now().Add(-result.Duration),
		Duration:     result.Duration,
		DirsCreated:  result.DirsCreated,
		FilesWritten: result.FilesWritten,
		Outcome:      ledger.OutcomeApplied,
	}

	digests := make([]ledger.FileDigest, 0, len(result.Digests))
	for _, file := range layout.Files() {
		digest, ok := result.Digests[file]
		if !ok {
			continue
		}
		size := 0
		if payload, err := assets.Payload(file); err == nil {
			size = len(payload)
		}
		digests = append(digests, ledger.FileDigest{
			RunID:  result.RunID,
			Path:   file,
			Digest: digest,
			Bytes:  size,
		})
	}

	if err := e.config.Ledger.RecordRun(run, digests); err != nil {
		warning := fmt.Sprintf("Failed to record run in ledger: %v", err)
		result.Warnings = append(result.Warnings, warning)
		e.logger.Warn("ledger write failed", zap.Error(err))
	}
}

// sendProgress sends a progress update if a channel is configured.
func (e *Engine) sendProgress(phase, message string, percent float64) {
	if e.config.ProgressChan != nil {
		select {
		case e.config.ProgressChan <- Progress{
			Phase:   phase,
			Message: message,
			Percent: percent,
		}:
		default:
			// Don't block if channel is full
		}
	}
}

// sendError sends an error-flagged progress update.
func (e *Engine) sendError(message string) {
	if e.config.ProgressChan != nil {
		select {
		case e.config.ProgressChan <- Progress{
			Phase:   "error",
			Message: message,
			IsError: true,
		}:
		default:
		}
	}
}

// Package doctor verifies a provisioned workspace against the canonical
// skeleton and optionally repairs drift. Conflicting entries, where the
// on-disk kind differs from the manifest, are reported but never
// repaired automatically: removing user data is not this tool's call.
package doctor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mergelytics/internal/assets"
	"mergelytics/internal/layout"
)

// EntryState classifies one skeleton entry's health.
type EntryState string

const (
	StateIntact   EntryState = "intact"
	StateMissing  EntryState = "missing"
	StateDrifted  EntryState = "drifted"  // file content differs from pristine
	StateConflict EntryState = "conflict" // on-disk kind differs from manifest
)

// EntryReport is the check result for one skeleton entry.
type EntryReport struct {
	Path       string      `json:"path"`
	Kind       layout.Kind `json:"kind"`
	State      EntryState  `json:"state"`
	Detail     string      `json:"detail,omitempty"`
	WantDigest string      `json:"want_digest,omitempty"`
	GotDigest  string      `json:"got_digest,omitempty"`
}

// Report is the outcome of one workspace check.
type Report struct {
	Workspace string        `json:"workspace"`
	CheckedAt time.Time     `json:"checked_at"`
	Entries   []EntryReport `json:"entries"`
	Repaired  []string      `json:"repaired,omitempty"`
}

// Healthy reports whether every entry is intact.
func (r *Report) Healthy() bool {
	for _, e := range r.Entries {
		if e.State != StateIntact {
			return false
		}
	}
	return true
}

// Counts tallies entries per state.
func (r *Report) Counts() map[EntryState]int {
	counts := make(map[EntryState]int)
	for _, e := range r.Entries {
		counts[e.State]++
	}
	return counts
}

// Options configures a doctor run.
type Options struct {
	Workspace string
	Repair    bool // rewrite drifted files and recreate missing entries
	Logger    *zap.Logger
}

// Run checks every skeleton entry, in parallel, and repairs what it can
// when Repair is set. Repairs happen serially in manifest order so a
// recreated directory exists before the files beneath it.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	entries := layout.Entries()
	report := &Report{
		Workspace: opts.Workspace,
		CheckedAt: time.Now(),
		Entries:   make([]EntryReport, len(entries)),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Entries[i] = checkEntry(opts.Workspace, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !opts.Repair {
		return report, nil
	}

	for i := range report.Entries {
		entry := &report.Entries[i]
		if entry.State == StateIntact || entry.State == StateConflict {
			continue
		}
		if err := repairEntry(opts.Workspace, *entry); err != nil {
			return report, fmt.Errorf("failed to repair %s: %w", entry.Path, err)
		}
		logger.Info("repaired entry",
			zap.String("path", entry.Path),
			zap.String("was", string(entry.State)))
		entry.State = StateIntact
		if entry.Kind == layout.KindFile {
			if digest, err := assets.Digest(entry.Path); err == nil {
				entry.WantDigest = digest
				entry.GotDigest = digest
			}
		}
		report.Repaired = append(report.Repaired, entry.Path)
	}

	return report, nil
}

// checkEntry inspects one manifest entry on disk.
func checkEntry(workspace string, entry layout.Entry) EntryReport {
	report := EntryReport{Path: entry.Path, Kind: entry.Kind, State: StateIntact}
	abs := layout.Abs(workspace, entry.Path)

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		report.State = StateMissing
		return report
	}
	if err != nil {
		report.State = StateMissing
		report.Detail = err.Error()
		return report
	}

	if entry.Kind == layout.KindDir {
		if !info.IsDir() {
			report.State = StateConflict
			report.Detail = "expected a directory, found a file"
		}
		return report
	}

	if info.IsDir() {
		report.State = StateConflict
		report.Detail = "expected a file, found a directory"
		return report
	}

	want, err := assets.Digest(entry.Path)
	if err != nil {
		report.State = StateDrifted
		report.Detail = err.Error()
		return report
	}
	report.WantDigest = want

	content, err := os.ReadFile(abs)
	if err != nil {
		report.State = StateDrifted
		report.Detail = err.Error()
		return report
	}

	report.GotDigest = assets.DigestBytes(content)
	if report.GotDigest != want {
		report.State = StateDrifted
		report.Detail = fmt.Sprintf("content differs (%d bytes on disk)", len(content))
		return report
	}

	if perm := info.Mode().Perm(); perm != 0644 {
		report.State = StateDrifted
		report.Detail = fmt.Sprintf("mode %04o, want 0644", perm)
	}
	return report
}

// repairEntry restores one missing or drifted entry to pristine state.
func repairEntry(workspace string, entry EntryReport) error {
	abs := layout.Abs(workspace, entry.Path)

	if entry.Kind == layout.KindDir {
		return os.MkdirAll(abs, 0755)
	}

	payload, err := assets.Payload(entry.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(payload)); err != nil {
		return err
	}
	return os.Chmod(abs, 0644)
}

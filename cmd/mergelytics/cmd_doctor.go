package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/assets"
	"mergelytics/internal/doctor"
	"mergelytics/internal/layout"
	"mergelytics/internal/ledger"
)

var (
	doctorRepair bool
	doctorWatch  bool
	doctorJSON   bool
)

// doctorCmd checks workspace health
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health against the canonical skeleton",
	Long: `Verifies every skeleton entry: directories present, files matching
their pristine content byte for byte.

With --repair, missing entries are recreated and drifted files restored.
Entries whose on-disk kind conflicts with the skeleton are reported but
never repaired automatically.

With --watch, the workspace is monitored and entries are re-checked as
they change on disk.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorRepair, "repair", false, "Restore missing or drifted entries")
	doctorCmd.Flags().BoolVar(&doctorWatch, "watch", false, "Keep watching and re-check on changes")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Emit the report as JSON")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ws := resolveWorkspace()

	if doctorWatch {
		return runDoctorWatch(ws)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetCheckTimeout())
	defer cancel()

	report, err := doctor.Run(ctx, doctor.Options{Workspace: ws, Repair: doctorRepair, Logger: logger})
	if err != nil {
		return err
	}

	store := openLedger()
	if store != nil {
		defer store.Close()
	}
	recordRepairs(store, ws, report)

	if doctorJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Print(ui.RenderReport(report, uiStyles()))
		if differs, total, runID, ok := digestsSinceApply(store, ws, report); ok {
			if differs == 0 {
				fmt.Printf("\nLedger: all %d files still match run %s.\n", total, runID)
			} else {
				fmt.Printf("\nLedger: %d of %d files changed since run %s.\n", differs, total, runID)
			}
		}
	}

	if !report.Healthy() {
		unhealthy := len(report.Entries) - report.Counts()[doctor.StateIntact]
		return fmt.Errorf("workspace has %d unhealthy entries", unhealthy)
	}
	return nil
}

// runDoctorWatch runs one check up front, then keeps watching until
// interrupted. An explicit --timeout bounds the watch window.
func runDoctorWatch(ws string) error {
	ctx := context.Background()
	var cancel context.CancelFunc
	if rootCmd.PersistentFlags().Changed("timeout") {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	report, err := doctor.Run(ctx, doctor.Options{Workspace: ws, Repair: doctorRepair, Logger: logger})
	if err != nil {
		return err
	}
	if store := openLedger(); store != nil {
		recordRepairs(store, ws, report)
		store.Close()
	}
	fmt.Print(ui.RenderReport(report, uiStyles()))

	watcher, err := doctor.NewWatcher(ws, cfg.GetWatchDebounce(), doctorRepair, logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Println("\nWatching for changes. Press Ctrl+C to stop.")
	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Watch window elapsed")
	}

	stats := watcher.GetStats()
	fmt.Printf("\nSeen %d events, ran %d checks, repaired %d entries.\n",
		stats.EventsSeen, stats.ChecksTriggered, stats.RepairsTriggered)
	return nil
}

// recordRepairs writes a repair run to the ledger when the doctor fixed
// anything, including the digests of the files it restored.
func recordRepairs(store *ledger.Store, ws string, report *doctor.Report) {
	if store == nil || len(report.Repaired) == 0 {
		return
	}

	dirs := 0
	var files []ledger.FileDigest
	for _, path := range report.Repaired {
		if entry, ok := layout.Lookup(path); ok && entry.Kind == layout.KindDir {
			dirs++
			continue
		}
		if payload, err := assets.Payload(path); err == nil {
			files = append(files, ledger.FileDigest{
				Path:   path,
				Digest: assets.DigestBytes(payload),
				Bytes:  len(payload),
			})
		}
	}

	run := ledger.Run{
		ID:           fmt.Sprintf("run_%s", uuid.New().String()[:8]),
		Workspace:    ws,
		StartedAt:    report.CheckedAt,
		Duration:     time.Since(report.CheckedAt),
		DirsCreated:  dirs,
		FilesWritten: len(files),
		Outcome:      ledger.OutcomeRepaired,
	}
	if err := store.RecordRun(run, files); err != nil {
		logger.Warn("ledger write failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/doctor"
)

// statusCmd shows workspace health and run history
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace health and run history",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetCheckTimeout())
	defer cancel()

	ws := resolveWorkspace()
	s := uiStyles()

	report, err := doctor.Run(ctx, doctor.Options{Workspace: ws, Logger: logger})
	if err != nil {
		return err
	}

	fmt.Println(s.Title.Render("Mergelytics workspace status"))
	fmt.Printf("  Workspace:  %s\n", ws)

	if report.Healthy() {
		fmt.Println("  Skeleton:   " + s.Success.Render("healthy"))
	} else {
		counts := report.Counts()
		fmt.Printf("  Skeleton:   %s (%d missing, %d drifted, %d conflicts)\n",
			s.Error.Render("degraded"),
			counts[doctor.StateMissing],
			counts[doctor.StateDrifted],
			counts[doctor.StateConflict])
	}

	store := openLedger()
	if store == nil {
		fmt.Println("  Ledger:     " + s.Muted.Render("disabled"))
		return nil
	}
	defer store.Close()

	last, err := store.LastRun(ws)
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Println("  History:    " + s.Muted.Render("no recorded runs"))
		return nil
	}

	count, err := store.RunCount(ws)
	if err != nil {
		return err
	}
	fmt.Printf("  History:    %d runs recorded\n", count)

	if differs, total, runID, ok := digestsSinceApply(store, ws, report); ok {
		if differs == 0 {
			fmt.Printf("  Digests:    all %d match %s\n", total, runID)
		} else {
			fmt.Printf("  Digests:    %d of %d differ from %s\n", differs, total, runID)
		}
	}
	fmt.Println()

	runs, err := store.Runs(ws, 5)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("    %s  %s  %-8s  %d dirs, %d files\n",
			s.Bold.Render(run.ID),
			s.Muted.Render(run.StartedAt.Local().Format("2006-01-02 15:04:05")),
			run.Outcome,
			run.DirsCreated,
			run.FilesWritten)
	}
	return nil
}

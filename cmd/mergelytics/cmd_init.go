package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/scaffold"
)

var (
	initDryRun bool
	initNoUI   bool
	initQuiet  bool
)

// initCmd provisions the workspace skeleton
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision the Mergelytics workspace skeleton",
	Long: `Creates the standard Mergelytics project skeleton in the workspace:

  scraper/                Python scraper with pinned requirements
  dashboard/              React dashboard scaffold
  .github/workflows/      CI workflow directory
  docs/                   Setup documentation

Directories are created before any file is written. Skeleton files are
overwritten with pristine content; files you added yourself are never
touched. Filesystem errors abort the run and surface as-is.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Show what would change without writing")
	initCmd.Flags().BoolVar(&initNoUI, "no-ui", false, "Disable the live progress display")
	initCmd.Flags().BoolVarP(&initQuiet, "quiet", "q", false, "Only report errors")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	engineCfg := scaffold.DefaultConfig(resolveWorkspace())
	engineCfg.Logger = logger

	if initDryRun {
		plan, err := scaffold.New(engineCfg).Plan(ctx)
		if err != nil {
			return err
		}
		fmt.Print(ui.RenderPlan(plan, uiStyles()))
		return nil
	}

	if store := openLedger(); store != nil {
		defer store.Close()
		engineCfg.Ledger = store
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) && !initNoUI && !initQuiet && !cfg.UI.NoColor
	if interactive {
		return runInitInteractive(ctx, cancel, engineCfg)
	}

	result, err := scaffold.New(engineCfg).Apply(ctx)
	if err != nil {
		return err
	}
	if !initQuiet {
		fmt.Print(ui.RenderResult(result, uiStyles()))
	}
	return nil
}

// runInitInteractive applies with the live progress view. The engine
// runs in its own goroutine and feeds the view through the progress
// channel; closing the channel ends the view.
func runInitInteractive(ctx context.Context, cancel context.CancelFunc, engineCfg scaffold.Config) error {
	updates := make(chan scaffold.Progress, 64)
	engineCfg.ProgressChan = updates
	engine := scaffold.New(engineCfg)

	type outcome struct {
		result *scaffold.Result
		err    error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		result, err := engine.Apply(ctx)
		close(updates)
		resultCh <- outcome{result, err}
	}()

	// Bubbletea owns the terminal here, so Ctrl+C arrives as a key
	// event instead of a signal; cancel the engine when the view
	// reports an interrupt.
	final, err := tea.NewProgram(ui.NewProgressModel(updates, uiStyles())).Run()
	if err != nil {
		logger.Warn("progress display failed", zap.Error(err))
	}
	if m, ok := final.(ui.ProgressModel); ok && m.Interrupted() {
		cancel()
	}

	res := <-resultCh
	if res.err != nil {
		return res.err
	}
	if !initQuiet {
		fmt.Print(ui.RenderResult(res.result, uiStyles()))
	}
	return nil
}

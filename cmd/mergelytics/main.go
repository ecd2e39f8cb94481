package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/config"
	"mergelytics/internal/doctor"
	"mergelytics/internal/layout"
	"mergelytics/internal/ledger"
	"mergelytics/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string
	cfgPath   string
	timeout   time.Duration
	noColor   bool

	// Shared state, built in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mergelytics",
	Short: "Mergelytics workspace provisioner",
	Long: `mergelytics provisions the standard Mergelytics project workspace:
the scraper, dashboard, CI, and docs skeleton every deployment starts
from.

Run without arguments to provision the current directory. Provisioning
is idempotent: re-running restores every skeleton file to pristine
content and never touches files you added yourself.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if noColor {
			cfg.UI.NoColor = true
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: provision the workspace
		return runInit(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/mergelytics/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Add commands to root
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the target workspace directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// openLedger opens the run ledger when enabled. A nil store disables
// recording; a broken ledger never blocks workspace operations.
func openLedger() *ledger.Store {
	if cfg == nil || !cfg.Ledger.Enabled {
		return nil
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logger.Warn("ledger unavailable", zap.Error(err))
		return nil
	}
	return store
}

// uiStyles resolves the configured theme, honoring no-color.
func uiStyles() ui.Styles {
	if cfg != nil && cfg.UI.NoColor {
		return ui.NoColorStyles()
	}
	theme := "auto"
	if cfg != nil {
		theme = cfg.UI.Theme
	}
	return ui.NewStyles(ui.ThemeByName(theme))
}

// digestsSinceApply compares the file digests the most recent ledger run
// recorded against what the doctor found on disk. ok is false when there
// is no ledger, no recorded run, or the run carries no digests.
func digestsSinceApply(store *ledger.Store, ws string, report *doctor.Report) (differs, total int, runID string, ok bool) {
	if store == nil {
		return 0, 0, "", false
	}
	last, err := store.LastRun(ws)
	if err != nil || last == nil {
		return 0, 0, "", false
	}
	recorded, err := store.FileDigests(last.ID)
	if err != nil || len(recorded) == 0 {
		return 0, 0, "", false
	}

	current := make(map[string]string, len(report.Entries))
	for _, entry := range report.Entries {
		if entry.Kind == layout.KindFile {
			current[entry.Path] = entry.GotDigest
		}
	}
	for path, recordedFile := range recorded {
		if current[path] != recordedFile.Digest {
			differs++
		}
	}
	return differs, len(recorded), last.ID, true
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/scaffold"
)

var planJSON bool

// planCmd shows what init would change without writing
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what init would change",
	Long: `Compares the workspace against the canonical skeleton and lists the
action each entry needs: create, overwrite, unchanged, or conflict.
Nothing is written.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Emit the plan as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	engineCfg := scaffold.DefaultConfig(resolveWorkspace())
	engineCfg.Logger = logger

	plan, err := scaffold.New(engineCfg).Plan(ctx)
	if err != nil {
		return err
	}

	if planJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(plan)
	}

	fmt.Print(ui.RenderPlan(plan, uiStyles()))
	return nil
}

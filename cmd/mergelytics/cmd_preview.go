package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mergelytics/cmd/mergelytics/ui"
	"mergelytics/internal/assets"
)

var previewRaw bool

// previewCmd shows pristine skeleton file contents
var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Preview pristine skeleton file contents",
	Long: `Shows the pristine content of a skeleton file, the bytes init would
write. Without an argument, lists every file with its size and digest.

Markdown files render for the terminal; --raw prints bytes as-is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print raw bytes without rendering")
}

func runPreview(cmd *cobra.Command, args []string) error {
	s := uiStyles()

	if len(args) == 0 {
		fmt.Println(s.Title.Render("Skeleton files"))
		for _, name := range assets.Names() {
			payload, err := assets.Payload(name)
			if err != nil {
				return err
			}
			digest, err := assets.Digest(name)
			if err != nil {
				return err
			}
			fmt.Printf("  %s  %s\n",
				s.FileEntry.Render(fmt.Sprintf("%-26s", name)),
				s.Digest.Render(fmt.Sprintf("%5d bytes  sha256:%s", len(payload), digest[:12])))
		}
		return nil
	}

	name := args[0]
	payload, err := assets.Payload(name)
	if err != nil {
		return err
	}

	if !previewRaw && strings.HasSuffix(name, ".md") && !cfg.UI.NoColor {
		renderer := ui.NewMarkdownRenderer(s.Theme, cfg.UI.Wrap)
		fmt.Print(ui.RenderMarkdown(renderer, string(payload)))
		return nil
	}

	_, err = os.Stdout.Write(payload)
	return err
}

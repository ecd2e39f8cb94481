package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"mergelytics/internal/doctor"
	"mergelytics/internal/layout"
	"mergelytics/internal/scaffold"
)

// NewMarkdownRenderer builds a glamour renderer matched to the theme.
func NewMarkdownRenderer(theme Theme, wrap int) *glamour.TermRenderer {
	if wrap <= 0 {
		wrap = 80
	}
	var renderer *glamour.TermRenderer
	if theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(wrap),
		)
	}
	return renderer
}

// RenderMarkdown renders markdown with panic recovery; glamour failures
// fall back to the raw text.
func RenderMarkdown(renderer *glamour.TermRenderer, content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if renderer != nil && content != "" {
		rendered, err := renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

// RenderPlan renders a dry-run plan as an entry list with action badges.
func RenderPlan(plan *scaffold.Plan, s Styles) string {
	var sb strings.Builder

	sb.WriteString(s.Title.Render("Plan for "+plan.Workspace) + "\n")

	for _, entry := range plan.Entries {
		marker := s.FileEntry
		if entry.Kind == layout.KindDir {
			marker = s.DirEntry
		}

		var action string
		switch entry.Action {
		case scaffold.ActionCreate:
			action = s.Success.Render("create   ")
		case scaffold.ActionOverwrite:
			action = s.Warning.Render("overwrite")
		case scaffold.ActionUnchanged:
			action = s.Muted.Render("unchanged")
		case scaffold.ActionExists:
			action = s.Muted.Render("exists   ")
		case scaffold.ActionConflict:
			action = s.Error.Render("conflict ")
		}

		name := entry.Path
		if entry.Kind == layout.KindDir {
			name += "/"
		}
		sb.WriteString(fmt.Sprintf("  %s  %s", action, marker.Render(name)))
		if entry.Kind == layout.KindFile && entry.Bytes > 0 {
			sb.WriteString(s.Digest.Render(fmt.Sprintf("  (%d bytes)", entry.Bytes)))
		}
		sb.WriteString("\n")
	}

	counts := plan.Counts()
	sb.WriteString("\n" + s.Muted.Render(fmt.Sprintf(
		"%d to create, %d to overwrite, %d unchanged, %d conflicts",
		counts[scaffold.ActionCreate],
		counts[scaffold.ActionOverwrite],
		counts[scaffold.ActionUnchanged]+counts[scaffold.ActionExists],
		counts[scaffold.ActionConflict])) + "\n")

	if conflicts := plan.Conflicts(); len(conflicts) > 0 {
		sb.WriteString(s.Error.Render("\nConflicts block an apply:") + "\n")
		for _, c := range conflicts {
			sb.WriteString("  " + s.Error.Render(c.Path) + "\n")
		}
	}

	return sb.String()
}

// RenderResult renders an apply summary.
func RenderResult(result *scaffold.Result, s Styles) string {
	var sb strings.Builder

	sb.WriteString(s.Success.Render("✓ Workspace ready") + "\n\n")
	sb.WriteString(s.Body.Render(fmt.Sprintf("  Workspace:      %s", result.Workspace)) + "\n")
	sb.WriteString(s.Body.Render(fmt.Sprintf("  Directories:    %d created", result.DirsCreated)) + "\n")
	sb.WriteString(s.Body.Render(fmt.Sprintf("  Files:          %d written (%d already pristine)",
		result.FilesWritten, result.Unchanged)) + "\n")
	sb.WriteString(s.Muted.Render(fmt.Sprintf("  Run:            %s in %s",
		result.RunID, result.Duration.Round(time.Millisecond))) + "\n")

	if len(result.Warnings) > 0 {
		sb.WriteString("\n")
		for _, w := range result.Warnings {
			sb.WriteString(s.Warning.Render("  ⚠ "+w) + "\n")
		}
	}

	return sb.String()
}

// RenderReport renders a doctor report.
func RenderReport(report *doctor.Report, s Styles) string {
	var sb strings.Builder

	if report.Healthy() {
		sb.WriteString(s.Success.Render("✓ Workspace is healthy") + "\n")
	} else {
		sb.WriteString(s.Error.Render("✗ Workspace has problems") + "\n")
	}
	sb.WriteString(s.Muted.Render("  "+report.Workspace) + "\n\n")

	for _, entry := range report.Entries {
		var line string
		switch entry.State {
		case doctor.StateIntact:
			line = s.Muted.Render(fmt.Sprintf("  ok        %s", entry.Path))
		case doctor.StateMissing:
			line = s.Error.Render(fmt.Sprintf("  missing   %s", entry.Path))
		case doctor.StateDrifted:
			line = s.Warning.Render(fmt.Sprintf("  drifted   %s", entry.Path))
		case doctor.StateConflict:
			line = s.Error.Render(fmt.Sprintf("  conflict  %s", entry.Path))
		}
		sb.WriteString(line)
		if entry.Detail != "" && entry.State != doctor.StateIntact {
			sb.WriteString(s.Digest.Render("  " + entry.Detail))
		}
		sb.WriteString("\n")
	}

	if len(report.Repaired) > 0 {
		repaired := append([]string(nil), report.Repaired...)
		sort.Strings(repaired)
		sb.WriteString("\n" + s.Success.Render(fmt.Sprintf("Repaired %d entries:", len(repaired))) + "\n")
		for _, path := range repaired {
			sb.WriteString("  " + s.Body.Render(path) + "\n")
		}
	}

	return sb.String()
}

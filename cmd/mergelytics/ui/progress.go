package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mergelytics/internal/scaffold"
)

// progressMsg carries one engine update into the bubbletea loop.
type progressMsg scaffold.Progress

// progressClosedMsg signals that the engine closed its channel.
type progressClosedMsg struct{}

// ProgressModel is the live apply view: a spinner, the current phase
// message, and a percent bar fed from the engine's progress channel.
type ProgressModel struct {
	styles      Styles
	spinner     spinner.Model
	bar         progress.Model
	updates     <-chan scaffold.Progress
	phase       string
	message     string
	percent     float64
	failed      bool
	interrupted bool
	quitting    bool
}

// Interrupted reports whether the user quit the view before the apply
// finished.
func (m ProgressModel) Interrupted() bool {
	return m.interrupted
}

// NewProgressModel builds the apply view over an engine progress channel.
func NewProgressModel(updates <-chan scaffold.Progress, styles Styles) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	bar := progress.New(progress.WithDefaultGradient())

	return ProgressModel{
		styles:  styles,
		spinner: sp,
		bar:     bar,
		updates: updates,
		phase:   "starting",
		message: "Preparing workspace...",
	}
}

func waitForUpdate(updates <-chan scaffold.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return progressClosedMsg{}
		}
		return progressMsg(p)
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.interrupted = true
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width < 10 {
			width = 10
		}
		if width > 60 {
			width = 60
		}
		m.bar.Width = width
		return m, nil

	case progressMsg:
		m.phase = msg.Phase
		m.message = msg.Message
		if msg.Percent > m.percent {
			m.percent = msg.Percent
		}
		if msg.IsError {
			m.failed = true
		}
		return m, waitForUpdate(m.updates)

	case progressClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")

	status := m.spinner.View()
	if m.failed {
		status = m.styles.Error.Render("✗")
	}
	sb.WriteString(fmt.Sprintf("  %s %s\n", status, m.styles.Body.Render(m.message)))
	sb.WriteString(fmt.Sprintf("  %s\n", m.bar.ViewAs(m.percent)))
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  phase: %s", m.phase)) + "\n")

	return sb.String()
}

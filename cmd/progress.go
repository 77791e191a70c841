package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase identifies the pipeline stage for progress reporting.
type Phase int

const (
	PhaseLoadingV1 Phase = iota
	PhaseLoadingV2
	PhaseComparing
	PhaseWriting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadingV1:
		return "Loading v1 snapshot"
	case PhaseLoadingV2:
		return "Loading v2 snapshot"
	case PhaseComparing:
		return "Comparing rows"
	case PhaseWriting:
		return "Writing result files"
	case PhaseDone:
		return "Done"
	default:
		return "Working"
	}
}

type phaseMsg struct {
	phase Phase
}

type doneMsg struct {
	err error
}

var (
	phaseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D9FF"))
	doneMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

type progressModel struct {
	phase   Phase
	spinner spinner.Model
	bar     progress.Model
	done    bool
	err     error
	width   int
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return progressModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 10
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case tea.KeyMsg:
		// CTRL-C is handled by the signal context; the TUI just exits.
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case phaseMsg:
		m.phase = msg.phase
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		if m.err != nil {
			return ""
		}
		return doneMarkStyle.Render("✓ Comparison complete") + "\n"
	}

	pct := float64(m.phase) / float64(PhaseDone)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), phaseStyle.Render(m.phase.String())))
	b.WriteString("  " + m.bar.ViewAs(pct) + "\n")
	return b.String()
}

// runWithProgress runs the differ under a progress TUI. The pipeline runs
// in a goroutine and feeds phase changes to the program; the program exits
// when the pipeline finishes.
func runWithProgress(ctx context.Context, differ *Differ) error {
	p := tea.NewProgram(newProgressModel(), tea.WithContext(ctx))

	differ.onPhase = func(phase Phase) {
		p.Send(phaseMsg{phase: phase})
	}

	errChan := make(chan error, 1)
	go func() {
		err := differ.Run(ctx)
		errChan <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		// TUI failure (e.g. no TTY after all): the pipeline result still
		// decides the outcome.
		<-errChan
		return err
	}

	return <-errChan
}

package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// PourSpinner is a tokkuri filling a choko.
var PourSpinner = spinner.Spinner{
	Frames: []string{"(    )", "(.   )", "(..  )", "(... )", "(....)", "( ...)", "(  ..)", "(   .)"},
	FPS:    time.Second / 8,
}

type doneMsg struct{ err error }

// waitModel shows a spinner until run finishes. Ctrl+C cancels the context
// run was started with and keeps waiting for it to return.
type waitModel struct {
	spinner     spinner.Model
	label       string
	run         func() error
	cancel      context.CancelFunc
	err         error
	done        bool
	interrupted bool
}

func newWaitModel(label string, run func() error, cancel context.CancelFunc) waitModel {
	sp := spinner.New()
	sp.Spinner = PourSpinner
	sp.Style = SpinnerStyle
	return waitModel{spinner: sp, label: label, run: run, cancel: cancel}
}

func (m waitModel) Init() tea.Cmd {
	run := m.run
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return doneMsg{err: run()} })
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if !m.interrupted {
				m.interrupted = true
				m.cancel()
			}
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	if m.interrupted {
		return m.spinner.View() + " " + HelpStyle.Render("cancelling...") + "\n"
	}
	return m.spinner.View() + " " + ValueStyle.Render(m.label) + " " + HelpStyle.Render("(ctrl+c to cancel)") + "\n"
}

// Wait runs fn while a spinner labelled label is shown on out. When
// interactive is false fn is simply called.
func Wait(ctx context.Context, out io.Writer, label string, interactive bool, fn func(context.Context) error) error {
	if !interactive {
		return fn(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newWaitModel(label, func() error { return fn(ctx) }, cancel)
	final, err := tea.NewProgram(m, tea.WithOutput(out)).Run()
	if err != nil {
		return err
	}
	return final.(waitModel).err
}

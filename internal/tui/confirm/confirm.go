// Package confirm is a yes/no dialog for destructive actions.
package confirm

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
)

// --- Model ---

// Model is the confirmation dialog. It quits the program once the user
// answers.
type Model struct {
	Prompt  string
	Details string

	confirmed bool
	answered  bool
	keys      keyMap
}

// New creates a dialog asking prompt, with optional details shown below it.
func New(prompt, details string) Model {
	return Model{
		Prompt:  prompt,
		Details: details,
		keys:    defaultKeyMap,
	}
}

// Confirmed reports whether the user said yes.
func (m Model) Confirmed() bool {
	return m.answered && m.confirmed
}

func (m Model) Init() tea.Cmd {
	return nil
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.answered, m.confirmed = true, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			m.answered, m.confirmed = true, false
			return m, tea.Quit
		}
	}
	return m, nil
}

// --- View ---

func (m Model) View() string {
	if m.answered {
		return ""
	}

	body := m.Prompt
	if m.Details != "" {
		body += "\n\n" + theme.DefaultTheme.Muted.Render(m.Details)
	}

	dialogBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultTheme.Colors.Orange).
		Padding(1, 2).
		Render(body)

	helpText := lipgloss.NewStyle().
		Faint(true).
		Width(lipgloss.Width(dialogBox)).
		Align(lipgloss.Center).
		Render("\n(y/n)")

	return lipgloss.JoinVertical(lipgloss.Left, dialogBox, helpText) + "\n"
}

// --- KeyMap ---

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc", "ctrl+c", "q"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// Run shows the dialog on the terminal and blocks until it is answered or
// ctx is done.
func Run(ctx context.Context, in io.Reader, out io.Writer, prompt, details string) (bool, error) {
	p := tea.NewProgram(New(prompt, details),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("run confirmation: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return false, nil
	}
	return m.Confirmed(), nil
}

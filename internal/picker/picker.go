// Package picker is the interactive history browser behind "cliphist pick".
package picker

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/message"
)

// PreviewWidth is how many runes of each entry the list shows.
const PreviewWidth = 50

// Client is what the picker needs from the daemon.
type Client interface {
	List() ([]message.Entry, error)
	Select(content string) error
	Remove(content string) error
}

type (
	entriesMsg  []message.Entry
	selectedMsg string
	errMsg      struct{ err error }
)

type styles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	item     lipgloss.Style
	age      lipgloss.Style
	help     lipgloss.Style
	errorMsg lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		item:     lipgloss.NewStyle(),
		age:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Model is the bubbletea model for the picker.
type Model struct {
	client  Client
	now     func() time.Time
	styles  styles
	entries []message.Entry
	cursor  int
	offset  int
	height  int
	loaded  bool
	err     error

	// Selected is the content written back to the clipboard, if any.
	Selected string
}

// New returns a picker backed by client.
func New(client Client) Model {
	return Model{client: client, now: time.Now, styles: defaultStyles()}
}

func (m Model) Init() tea.Cmd {
	return m.load
}

func (m Model) load() tea.Msg {
	entries, err := m.client.List()
	if err != nil {
		return errMsg{err}
	}
	return entriesMsg(entries)
}

func (m Model) selectCmd(content string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Select(content); err != nil {
			return errMsg{err}
		}
		return selectedMsg(content)
	}
}

func (m Model) removeCmd(content string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Remove(content); err != nil {
			return errMsg{err}
		}
		return m.load()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.clampOffset()

	case entriesMsg:
		m.entries = msg
		m.loaded = true
		m.err = nil
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}
		m.clampOffset()

	case selectedMsg:
		m.Selected = string(msg)
		return m, tea.Quit

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.entries)-1, 0)
		case "r":
			return m, m.load
		case "enter":
			if len(m.entries) > 0 {
				return m, m.selectCmd(m.entries[m.cursor].Content)
			}
		case "d", "delete":
			if len(m.entries) > 0 {
				return m, m.removeCmd(m.entries[m.cursor].Content)
			}
		}
		m.clampOffset()
	}
	return m, nil
}

// visibleRows is the list height after the title and help lines.
func (m Model) visibleRows() int {
	if m.height <= 0 {
		return history.DefaultCapacity
	}
	return max(m.height-4, 1)
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Clipboard history"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded && m.err == nil:
		b.WriteString("loading…\n")
	case m.loaded && len(m.entries) == 0:
		b.WriteString(m.styles.age.Render("history is empty") + "\n")
	}

	end := min(m.offset+m.visibleRows(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := fmt.Sprintf("%2d  %-*s  %s", i, PreviewWidth+1, history.Preview(e.Content, PreviewWidth), m.styles.age.Render(Age(m.now().Sub(e.CapturedAt))))
		if i == m.cursor {
			b.WriteString(m.styles.cursor.Render("> " + line))
		} else {
			b.WriteString(m.styles.item.Render("  " + line))
		}
		b.WriteByte('\n')
	}

	if m.err != nil {
		b.WriteString(m.styles.errorMsg.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.styles.help.Render("↑/↓ move • enter copy • d delete • r reload • q quit"))
	return b.String()
}

// Age renders a duration the way the list shows it: 5s, 3m, 2h, 4d.
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", max(int(d/time.Second), 0))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// Run starts the picker full-screen and returns the selected content, or ""
// when the user quit without choosing.
func Run(client Client) (string, error) {
	final, err := tea.NewProgram(New(client), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	return final.(Model).Selected, nil
}

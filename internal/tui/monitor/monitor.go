// Package monitor is the live terminal view behind `servloc watch`. It renders
// locator and provider events from an event bus as they arrive.
package monitor

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/internal/event"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
	"github.com/Iron-Ham/servloc/locator"
)

// maxRecent is how many recent events the log pane keeps.
const maxRecent = 8

// eventMsg carries one bus event into the update loop.
type eventMsg struct{ e event.Event }

// closedMsg reports that the event channel was closed.
type closedMsg struct{}

// Model is the bubbletea model for the monitor.
type Model struct {
	events <-chan event.Event
	source string // provider file being watched

	counts  map[string]int
	order   []string // event types in first-seen order
	driver  string
	lastErr string
	recent  []string

	closed   bool
	width    int
	height   int
	quitting bool
}

// New returns a monitor reading from events. source is shown in the header.
func New(events <-chan event.Event, source string) Model {
	return Model{
		events: events,
		source: source,
		counts: make(map[string]int),
	}
}

// waitForEvent blocks on the channel inside a tea.Cmd so the update loop
// never does.
func waitForEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg{e: e}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.counts = make(map[string]int)
			m.order = nil
			m.recent = nil
			m.lastErr = ""
		}
		return m, nil

	case eventMsg:
		m.apply(msg.e)
		return m, waitForEvent(m.events)

	case closedMsg:
		m.closed = true
		return m, nil
	}

	return m, nil
}

// apply folds one event into the model.
func (m *Model) apply(e event.Event) {
	t := e.EventType()
	if _, seen := m.counts[t]; !seen {
		m.order = append(m.order, t)
	}
	m.counts[t]++

	switch ev := e.(type) {
	case event.DriverSwappedEvent:
		m.driver = ev.Current
	case event.ProviderErrorEvent:
		if ev.Err != nil {
			m.lastErr = ev.Err.Error()
		}
	case locator.Event:
		if ev.Err != nil {
			m.lastErr = ev.Err.Error()
		}
	case event.ScenarioFinishedEvent:
		if !ev.Passed && ev.Err != nil {
			m.lastErr = ev.Err.Error()
		}
	}

	line := fmt.Sprintf("%s %s %s  %s",
		e.Timestamp().Format("15:04:05"),
		lipgloss.NewStyle().Foreground(styles.EventColor(t)).Render(styles.EventIcon(t)),
		t,
		event.Describe(e))
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	width := m.width - 4
	if width < 20 {
		width = 40
	}
	b.WriteString(styles.Header.Width(width).Render("servloc monitor"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Provider file: " + m.source))
	b.WriteString("\n\n")

	driver := m.driver
	if driver == "" {
		driver = styles.Muted.Render("(none yet)")
	} else {
		driver = styles.SuccessMsg.Render(driver)
	}
	b.WriteString(styles.Label.Render("Current driver") + driver + "\n\n")

	if len(m.order) == 0 {
		b.WriteString(styles.Muted.Render("Waiting for events..."))
		b.WriteString("\n")
	}
	for _, t := range m.order {
		color := lipgloss.NewStyle().Foreground(styles.EventColor(t))
		b.WriteString(styles.Label.Render(t))
		b.WriteString(color.Render(fmt.Sprintf("%d", m.counts[t])))
		b.WriteString("\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.ContentBox.Render(strings.Join(m.recent, "\n")))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Last error: " + m.lastErr))
		b.WriteString("\n")
	}
	if m.closed {
		b.WriteString("\n")
		b.WriteString(styles.WarningMsg.Render("Event stream closed"))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpBar.Render(
		styles.HelpKey.Render("q") + " quit  " + styles.HelpKey.Render("c") + " clear"))

	return b.String()
}

// Counts returns how many events of each type the monitor has shown.
func (m Model) Counts() map[string]int {
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Run shows the monitor until the user quits or ctx is cancelled.
func Run(ctx context.Context, events <-chan event.Event, source string) error {
	p := tea.NewProgram(New(events, source), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil) {
		return nil
	}
	return err
}


// Package dashboard renders the live monitoring view, either as a bubbletea
// TUI or as plain text for --simple terminals.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bdougie/badbits/internal/habits"
	"github.com/bdougie/badbits/internal/monitor"
	"github.com/bdougie/badbits/internal/stats"
	"github.com/bdougie/badbits/internal/vision"
)

// timelineLen is how many recent checks the per-habit history strip shows.
const timelineLen = 20

// CheckMsg wraps a completed check cycle.
type CheckMsg struct {
	Event monitor.CheckEvent
}

// eventsClosedMsg signals that the monitor stopped publishing.
type eventsClosedMsg struct{}

// tickMsg drives the clock in the status line.
type tickMsg time.Time

// Model is the root bubbletea model for the monitoring dashboard.
type Model struct {
	reg      *habits.Registry
	events   <-chan monitor.CheckEvent
	interval time.Duration

	stats       stats.CheckStats
	lastResults map[string]vision.Result
	timeline    map[string][]bool
	errorText   string
	finished    bool

	width  int
	height int
}

// New builds a dashboard over the monitor's event stream.
func New(reg *habits.Registry, events <-chan monitor.CheckEvent, interval time.Duration) Model {
	return Model{
		reg:         reg,
		events:      events,
		interval:    interval,
		stats:       stats.New(),
		lastResults: map[string]vision.Result{},
		timeline:    map[string][]bool{},
		width:       80,
	}
}

// Init starts listening for check events and ticking the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func waitForEvent(events <-chan monitor.CheckEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return CheckMsg{Event: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		return m, tick()

	case CheckMsg:
		m = m.applyEvent(msg.Event)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) applyEvent(ev monitor.CheckEvent) Model {
	m.stats = ev.Stats
	if ev.Err != "" {
		m.errorText = ev.Err
		return m
	}
	m.errorText = ""
	for _, r := range ev.Results {
		m.lastResults[r.Habit] = r
		line := append(m.timeline[r.Habit], r.Active)
		if len(line) > timelineLen {
			line = line[len(line)-timelineLen:]
		}
		m.timeline[r.Habit] = line
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	b.WriteString(divider + "\n")
	b.WriteString(center(m.width, titleStyle.Render("BadBits Monitor")) + "\n")
	b.WriteString(center(m.width, subtitleStyle.Render("Posture and habit tracking")) + "\n")
	b.WriteString(divider + "\n\n")

	badge := liveBadgeStyle.Render("● LIVE")
	if m.finished {
		badge = doneBadgeStyle.Render("● COMPLETE")
	}
	last := "--:--:--"
	if !m.stats.LastCheck.IsZero() {
		last = m.stats.LastCheck.Format("15:04:05")
	}
	status := fmt.Sprintf("%s │ Session: %s │ Checks: %d │ Now: %s │ Last: %s",
		badge,
		m.stats.Duration().Round(time.Minute),
		m.stats.TotalChecks,
		time.Now().Format("15:04:05"),
		last)
	b.WriteString(center(m.width, status) + "\n\n")

	b.WriteString(habitNameStyle.Render("Habit Monitoring") + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("┄", m.width)) + "\n")

	enabled := m.reg.Enabled()
	switch {
	case len(enabled) == 0:
		b.WriteString("No habits being monitored\n")
	case m.stats.TotalChecks == 0:
		b.WriteString("Monitoring started - waiting for first check\n")
	default:
		for _, h := range enabled {
			b.WriteString(m.renderHabit(h))
		}
	}

	if m.errorText != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.errorText) + "\n")
	}

	b.WriteString("\n" + divider + "\n")
	b.WriteString(center(m.width, dimStyle.Render("Press q to exit")) + "\n")
	return b.String()
}

func (m Model) renderHabit(h habits.Check) string {
	var b strings.Builder

	status := goodStyle.Render("✓ Good")
	if r, ok := m.lastResults[h.ID]; ok && r.Active {
		status = alertStyle.Render("! NEEDS ATTENTION")
	}
	b.WriteString(fmt.Sprintf("\n%s  %s  %s\n", h.Emoji, habitNameStyle.Render(h.DisplayName()), status))

	percent := m.stats.AlertPercent(h.ID)
	barWidth := 25
	fill := percent * barWidth / 100
	barStyle := goodStyle
	if percent > 25 {
		barStyle = alertStyle
	}
	bar := barStyle.Render(strings.Repeat("■", fill)) + dimStyle.Render(strings.Repeat("·", barWidth-fill))
	b.WriteString(fmt.Sprintf("   Session issues: %3d%% [%s]\n", percent, bar))

	var dots strings.Builder
	for _, active := range m.timeline[h.ID] {
		if active {
			dots.WriteString(alertStyle.Render("×"))
		} else {
			dots.WriteString(goodStyle.Render("·"))
		}
	}
	b.WriteString(fmt.Sprintf("   History: [%s] (oldest → newest)\n", dots.String()))
	return b.String()
}

func center(width int, s string) string {
	// lipgloss rendering embeds escape codes, so pad on rune-count of the
	// stripped text rather than len(s).
	plain := stripLen(s)
	if plain >= width {
		return s
	}
	pad := (width - plain) / 2
	return strings.Repeat(" ", pad) + s
}

func stripLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			n++
		}
	}
	return n
}

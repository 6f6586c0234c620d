package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bdougie/badbits/internal/habits"
	"github.com/bdougie/badbits/internal/monitor"
	"github.com/bdougie/badbits/internal/stats"
	"github.com/bdougie/badbits/internal/vision"
)

func testModel() Model {
	events := make(chan monitor.CheckEvent)
	return New(habits.Defaults(), events, time.Minute)
}

func checkEvent(seq int, postureActive bool) monitor.CheckEvent {
	results := []vision.Result{
		{Habit: "posture", Active: postureActive},
		{Habit: "nail_biting", Active: false},
	}
	st := stats.New()
	for i := 0; i < seq; i++ {
		st = st.Update(results)
	}
	return monitor.CheckEvent{
		Seq:     seq,
		TakenAt: time.Now(),
		Results: results,
		Stats:   st,
	}
}

func TestApplyEvent(t *testing.T) {
	m := testModel()
	m = m.applyEvent(checkEvent(1, true))

	if m.stats.TotalChecks != 1 {
		t.Errorf("TotalChecks = %d", m.stats.TotalChecks)
	}
	r, ok := m.lastResults["posture"]
	if !ok || !r.Active {
		t.Errorf("posture result not recorded: %+v", r)
	}
	if len(m.timeline["posture"]) != 1 || !m.timeline["posture"][0] {
		t.Errorf("timeline = %v", m.timeline["posture"])
	}
}

func TestApplyEventCapsTimeline(t *testing.T) {
	m := testModel()
	for i := 0; i < timelineLen+5; i++ {
		m = m.applyEvent(checkEvent(i+1, i%2 == 0))
	}
	if got := len(m.timeline["posture"]); got != timelineLen {
		t.Errorf("timeline length = %d, want %d", got, timelineLen)
	}
}

func TestApplyEventError(t *testing.T) {
	m := testModel()
	m = m.applyEvent(monitor.CheckEvent{Seq: 1, Err: "camera unplugged"})
	if m.errorText != "camera unplugged" {
		t.Errorf("errorText = %q", m.errorText)
	}

	// The next clean check clears the error.
	m = m.applyEvent(checkEvent(2, false))
	if m.errorText != "" {
		t.Errorf("errorText not cleared: %q", m.errorText)
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyRunes, Runes: []rune("Q")},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		m := testModel()
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Errorf("key %q should quit", key.String())
			continue
		}
		if msg := cmd(); msg != tea.Quit() {
			t.Errorf("key %q produced %T, want tea.QuitMsg", key.String(), msg)
		}
	}
}

func TestUpdateEventsClosed(t *testing.T) {
	m := testModel()
	updated, cmd := m.Update(eventsClosedMsg{})
	if !updated.(Model).finished {
		t.Error("finished not set after events closed")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("got %T, want tea.QuitMsg", msg)
	}
}

func TestUpdateWindowSize(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if updated.(Model).width != 120 {
		t.Errorf("width = %d", updated.(Model).width)
	}
}

func TestViewShowsHabits(t *testing.T) {
	m := testModel()
	m = m.applyEvent(checkEvent(1, true))

	view := m.View()
	if !strings.Contains(view, "Poor Posture") {
		t.Error("view missing posture habit")
	}
	if !strings.Contains(view, "NEEDS ATTENTION") {
		t.Error("view missing active status for flagged habit")
	}
	if !strings.Contains(view, "Nail Biting") {
		t.Error("view missing nail biting habit")
	}
	if !strings.Contains(view, "LIVE") {
		t.Error("view missing live badge")
	}
}

func TestViewBeforeFirstCheck(t *testing.T) {
	m := testModel()
	view := m.View()
	if !strings.Contains(view, "waiting for first check") {
		t.Error("view missing waiting message")
	}
}

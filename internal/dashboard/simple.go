package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bdougie/badbits/internal/habits"
	"github.com/bdougie/badbits/internal/monitor"
	"github.com/bdougie/badbits/internal/stats"
)

// Simple prints one block of plain text per check, for terminals where the
// full-screen dashboard is unwanted.
type Simple struct {
	Out io.Writer
	Reg *habits.Registry
}

// RunSimple consumes the event stream until it closes, printing each check.
func (s *Simple) RunSimple(events <-chan monitor.CheckEvent) {
	for ev := range events {
		s.printCheck(ev)
	}
}

func (s *Simple) printCheck(ev monitor.CheckEvent) {
	fmt.Fprintf(s.Out, "\nCHECK #%d at %s\n", ev.Seq, ev.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(s.Out, strings.Repeat("=", 50))

	if ev.Err != "" {
		fmt.Fprintf(s.Out, "WARNING: %s\n", ev.Err)
		return
	}
	if ev.ArchiveDir != "" {
		fmt.Fprintf(s.Out, "Analysis saved to: %s\n", ev.ArchiveDir)
	} else {
		fmt.Fprintln(s.Out, "Privacy mode: no data saved to disk")
	}

	for _, r := range ev.Results {
		status := "OK"
		if r.Active {
			status = "DETECTED"
		}
		name := r.Habit
		if h, ok := s.Reg.Get(r.Habit); ok {
			name = h.Emoji + " " + h.DisplayName()
		}
		fmt.Fprintf(s.Out, "%s: %s\n", name, status)
	}
}

// PrintSummary writes the end-of-session report shown when monitoring stops.
func PrintSummary(out io.Writer, reg *habits.Registry, st stats.CheckStats, archiveDir string) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(out, "MONITORING SESSION ENDED")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Session duration: %s (%d checks)\n",
		st.Duration().Round(time.Minute), st.TotalChecks)

	for _, h := range reg.Enabled() {
		fmt.Fprintf(out, "%s %s: %d/%d checks (%d%%)\n",
			h.Emoji, h.DisplayName(), st.HabitAlerts[h.ID], st.TotalChecks, st.AlertPercent(h.ID))
	}
	if archiveDir != "" {
		fmt.Fprintf(out, "\nAnalysis data saved to: %s\n", archiveDir)
	}
}

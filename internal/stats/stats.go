// Package stats tracks per-session check and alert counts.
package stats

import (
	"time"

	"github.com/bdougie/badbits/internal/vision"
)

// CheckStats summarizes a monitoring session. Update returns a new value so
// snapshots handed to the dashboard never change underneath it.
type CheckStats struct {
	TotalChecks int
	StartTime   time.Time
	LastCheck   time.Time
	HabitAlerts map[string]int
}

// New returns empty stats starting now.
func New() CheckStats {
	return CheckStats{
		StartTime:   time.Now(),
		HabitAlerts: map[string]int{},
	}
}

// Update returns a copy with one more check recorded and the active results
// counted against their habits.
func (s CheckStats) Update(results []vision.Result) CheckStats {
	alerts := make(map[string]int, len(s.HabitAlerts))
	for k, v := range s.HabitAlerts {
		alerts[k] = v
	}
	for _, r := range results {
		if r.Active {
			alerts[r.Habit]++
		}
	}
	return CheckStats{
		TotalChecks: s.TotalChecks + 1,
		StartTime:   s.StartTime,
		LastCheck:   time.Now(),
		HabitAlerts: alerts,
	}
}

// AlertPercent returns the percentage of checks that flagged the habit.
func (s CheckStats) AlertPercent(habit string) int {
	if s.TotalChecks == 0 {
		return 0
	}
	return s.HabitAlerts[habit] * 100 / s.TotalChecks
}

// Duration returns how long the session has been running.
func (s CheckStats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

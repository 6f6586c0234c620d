package stats

import (
	"testing"

	"github.com/bdougie/badbits/internal/vision"
)

func TestUpdateCounts(t *testing.T) {
	s := New()

	s = s.Update([]vision.Result{
		{Habit: "posture", Active: true},
		{Habit: "nail_biting", Active: false},
	})
	s = s.Update([]vision.Result{
		{Habit: "posture", Active: true},
		{Habit: "nail_biting", Active: true},
	})
	s = s.Update([]vision.Result{
		{Habit: "posture", Active: false},
		{Habit: "nail_biting", Active: false},
	})

	if s.TotalChecks != 3 {
		t.Errorf("TotalChecks = %d", s.TotalChecks)
	}
	if s.HabitAlerts["posture"] != 2 {
		t.Errorf("posture alerts = %d", s.HabitAlerts["posture"])
	}
	if s.HabitAlerts["nail_biting"] != 1 {
		t.Errorf("nail_biting alerts = %d", s.HabitAlerts["nail_biting"])
	}
	if s.LastCheck.IsZero() {
		t.Error("LastCheck not set")
	}
}

func TestUpdateIsImmutable(t *testing.T) {
	before := New()
	after := before.Update([]vision.Result{{Habit: "posture", Active: true}})

	if before.TotalChecks != 0 {
		t.Error("Update mutated the receiver's TotalChecks")
	}
	if len(before.HabitAlerts) != 0 {
		t.Error("Update mutated the receiver's alert map")
	}
	if after.TotalChecks != 1 || after.HabitAlerts["posture"] != 1 {
		t.Errorf("unexpected updated stats: %+v", after)
	}
}

func TestAlertPercent(t *testing.T) {
	s := New()
	if s.AlertPercent("posture") != 0 {
		t.Error("zero checks must yield 0%")
	}

	for i := 0; i < 4; i++ {
		active := i < 1
		s = s.Update([]vision.Result{{Habit: "posture", Active: active}})
	}
	if got := s.AlertPercent("posture"); got != 25 {
		t.Errorf("AlertPercent = %d, want 25", got)
	}
	if got := s.AlertPercent("unknown"); got != 0 {
		t.Errorf("AlertPercent for unseen habit = %d", got)
	}
}

package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/bdougie/badbits/internal/habits"
)

// stubQuerier returns canned answers keyed by a substring of the prompt.
type stubQuerier struct {
	answers map[string]string
	err     error
	calls   int
}

func (s *stubQuerier) Query(ctx context.Context, prompt, imagePath string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for key, answer := range s.answers {
		if strings.Contains(prompt, key) {
			return answer, nil
		}
	}
	return "no", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		answer string
		active bool
		binary bool
	}{
		{"yes", true, true},
		{"Yes", true, true},
		{"YES", true, true},
		{"yes.", true, true},
		{"  yes!  ", true, true},
		{"no", false, true},
		{"No.", false, true},
		{"no,", false, true},
		{"maybe", false, false},
		{"yes, the person is slouching", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		active, binary := ParseAnswer(tt.answer)
		if active != tt.active || binary != tt.binary {
			t.Errorf("ParseAnswer(%q) = (%v, %v), want (%v, %v)",
				tt.answer, active, binary, tt.active, tt.binary)
		}
	}
}

func TestAnalyze(t *testing.T) {
	reg := habits.Defaults()
	q := &stubQuerier{answers: map[string]string{
		"worse posture": "yes",
		"biting":        "no",
	}}

	a := NewAnalyzer(q, reg, testLogger())
	results, err := a.Analyze(context.Background(), "collage.jpg")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byHabit := map[string]Result{}
	for _, r := range results {
		byHabit[r.Habit] = r
	}
	if !byHabit["posture"].Active {
		t.Error("posture should be active")
	}
	if byHabit["nail_biting"].Active {
		t.Error("nail_biting should not be active")
	}
	if q.calls != 2 {
		t.Errorf("expected one query per enabled habit, got %d", q.calls)
	}
}

func TestAnalyzeNonBinaryTreatedAsNo(t *testing.T) {
	reg := habits.Defaults()
	reg.SetEnabled("nail_biting", false)
	q := &stubQuerier{answers: map[string]string{
		"worse posture": "I think the posture looks a bit worse, yes",
	}}

	a := NewAnalyzer(q, reg, testLogger())
	results, err := a.Analyze(context.Background(), "collage.jpg")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if results[0].Active {
		t.Error("rambling answer must not count as a detection")
	}
}

func TestAnalyzeNoEnabledHabits(t *testing.T) {
	reg := habits.Defaults()
	reg.SetEnabled("posture", false)
	reg.SetEnabled("nail_biting", false)

	a := NewAnalyzer(&stubQuerier{}, reg, testLogger())
	results, err := a.Analyze(context.Background(), "collage.jpg")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 1 || results[0].Habit != "no_checks" {
		t.Fatalf("expected no_checks placeholder, got %+v", results)
	}
	if results[0].Active {
		t.Error("placeholder must not be active")
	}
}

func TestAnalyzeModelError(t *testing.T) {
	reg := habits.Defaults()
	q := &stubQuerier{err: fmt.Errorf("connection refused")}

	a := NewAnalyzer(q, reg, testLogger())
	if _, err := a.Analyze(context.Background(), "collage.jpg"); err == nil {
		t.Error("model failure must abort the check")
	}
}

func TestStatusText(t *testing.T) {
	r := Result{Habit: "nail_biting", Active: true}
	if got := r.StatusText(); got != "NAIL BITING: DETECTED" {
		t.Errorf("StatusText() = %q", got)
	}
	r.Active = false
	if got := r.StatusText(); got != "NAIL BITING: OK" {
		t.Errorf("StatusText() = %q", got)
	}
}

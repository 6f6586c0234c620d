package habits

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	reg := Defaults()

	all := reg.All()
	if len(all) != 4 {
		t.Fatalf("expected 4 default habits, got %d", len(all))
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled habits, got %d", len(enabled))
	}
	if enabled[0].ID != "posture" || enabled[1].ID != "nail_biting" {
		t.Errorf("unexpected enabled order: %s, %s", enabled[0].ID, enabled[1].ID)
	}

	for _, id := range []string{"posture", "nail_biting", "eye_strain", "screen_break"} {
		c, ok := reg.Get(id)
		if !ok {
			t.Fatalf("missing default habit %s", id)
		}
		if c.Prompt == "" {
			t.Errorf("habit %s has empty prompt", id)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		check Check
		want  string
	}{
		{Check{ID: "nail_biting", Name: "Nail Biting"}, "Nail Biting"},
		{Check{ID: "nail_biting"}, "Nail Biting"},
		{Check{ID: "posture"}, "Posture"},
		{Check{ID: "slouching_at_desk"}, "Slouching At Desk"},
	}
	for _, tt := range tests {
		if got := tt.check.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q/%q) = %q, want %q", tt.check.ID, tt.check.Name, got, tt.want)
		}
	}
}

func TestAlertMessage(t *testing.T) {
	c := Check{ID: "posture", ActiveMessage: "Sit up!"}
	if got := c.AlertMessage(); got != "Sit up!" {
		t.Errorf("AlertMessage() = %q", got)
	}

	c = Check{ID: "nail_biting"}
	if got := c.AlertMessage(); got != "Nail Biting detected!" {
		t.Errorf("AlertMessage() fallback = %q", got)
	}
}

func TestSetEnabled(t *testing.T) {
	reg := Defaults()

	if !reg.SetEnabled("eye_strain", true) {
		t.Fatal("SetEnabled returned false for known habit")
	}
	if len(reg.Enabled()) != 3 {
		t.Errorf("expected 3 enabled habits after enabling eye_strain")
	}

	if reg.SetEnabled("nonexistent", true) {
		t.Error("SetEnabled returned true for unknown habit")
	}
}

func TestPutValidation(t *testing.T) {
	reg := Defaults()

	if err := reg.Put(Check{Prompt: "a prompt"}); err == nil {
		t.Error("expected error for habit without ID")
	}
	if err := reg.Put(Check{ID: "custom"}); err == nil {
		t.Error("expected error for habit without prompt")
	}
	if err := reg.Put(Check{ID: "custom", Prompt: "a prompt", Enabled: true}); err != nil {
		t.Errorf("Put valid habit: %v", err)
	}

	all := reg.All()
	if all[len(all)-1].ID != "custom" {
		t.Error("new habit not appended in registration order")
	}
}

func TestSaveAndMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "habits.json")

	reg := Defaults()
	if err := reg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	checks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(checks) != 4 {
		t.Fatalf("round-trip lost habits: got %d", len(checks))
	}

	// Override one built-in and add a new habit via MergeFile.
	custom := `[
		{"habit_id": "posture", "name": "Slouch Watch", "prompt": "custom prompt", "enabled": false},
		{"habit_id": "coffee", "name": "Coffee Break", "prompt": "Is there a mug?", "enabled": true}
	]`
	customPath := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(customPath, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := reg.MergeFile(customPath); err != nil {
		t.Fatalf("MergeFile: %v", err)
	}

	posture, _ := reg.Get("posture")
	if posture.Name != "Slouch Watch" || posture.Enabled {
		t.Errorf("posture override not applied: %+v", posture)
	}
	if _, ok := reg.Get("coffee"); !ok {
		t.Error("merged habit missing")
	}
	if len(reg.All()) != 5 {
		t.Errorf("expected 5 habits after merge, got %d", len(reg.All()))
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`[{"name": "No ID"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected validation error for habit without habit_id")
	}

	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error for malformed JSON")
	}
}

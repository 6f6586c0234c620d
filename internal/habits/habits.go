// Package habits defines the habit checks BadBits runs against each webcam
// frame and the JSON format used for custom habit files.
package habits

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Check describes a single habit to detect in a frame. Prompt must ask the
// vision model for a bare yes/no answer; anything else is treated as "no".
type Check struct {
	ID            string `json:"habit_id"`
	Name          string `json:"name"`
	Emoji         string `json:"emoji"`
	Prompt        string `json:"prompt"`
	Description   string `json:"description,omitempty"`
	ActiveMessage string `json:"active_message,omitempty"`
	Enabled       bool   `json:"enabled"`
}

// DisplayName returns a human-readable name for UI output.
func (c Check) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	words := strings.Split(strings.ReplaceAll(c.ID, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// AlertMessage returns the message shown when the habit is detected.
func (c Check) AlertMessage() string {
	if c.ActiveMessage != "" {
		return c.ActiveMessage
	}
	return fmt.Sprintf("%s detected!", c.DisplayName())
}

func (c Check) validate() error {
	if c.ID == "" {
		return fmt.Errorf("habit is missing habit_id")
	}
	if c.Prompt == "" {
		return fmt.Errorf("habit %q is missing prompt", c.ID)
	}
	return nil
}

// Registry holds the set of known habit checks. It is safe for concurrent
// use; the fsnotify reload path mutates it while the monitor loop reads it.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
	order  []string
}

// Defaults returns a registry seeded with the built-in habit checks.
// Posture and nail biting start enabled; the rest are opt-in.
func Defaults() *Registry {
	r := &Registry{checks: make(map[string]Check)}
	for _, c := range []Check{
		{
			ID:            "posture",
			Name:          "Poor Posture",
			Emoji:         "🪑",
			Prompt:        "Compare the top (reference) and bottom images: Is the person in the bottom image sitting with worse posture than in the reference image? Answer with ONLY 'yes' or 'no'.",
			Description:   "Detects poor sitting posture compared to your reference image",
			ActiveMessage: "Poor posture detected! Straighten your back and adjust your position.",
			Enabled:       true,
		},
		{
			ID:            "nail_biting",
			Name:          "Nail Biting",
			Emoji:         "💅",
			Prompt:        "Looking at the bottom image only: Is the person biting their nails or have their hands near their mouth? Answer with ONLY 'yes' or 'no' - nothing else.",
			Description:   "Detects nail biting or hands near mouth",
			ActiveMessage: "Nail biting detected! Be mindful of your hands.",
			Enabled:       true,
		},
		{
			ID:            "eye_strain",
			Name:          "Eye Strain",
			Emoji:         "👁️",
			Prompt:        "Looking at the bottom image only: Is the person leaning too close to the screen (less than arm's length away)? Answer with ONLY 'yes' or 'no' - nothing else.",
			Description:   "Detects when you're sitting too close to the screen",
			ActiveMessage: "You're too close to the screen! Sit back to reduce eye strain.",
			Enabled:       false,
		},
		{
			ID:            "screen_break",
			Name:          "Screen Break",
			Emoji:         "⏱️",
			Prompt:        "This is a timed reminder. Please answer 'yes' to indicate it's time for a screen break.",
			Description:   "Reminds you to take regular breaks from screen time",
			ActiveMessage: "Time for a screen break! Look away from the screen for 20 seconds.",
			Enabled:       false,
		},
	} {
		r.checks[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

// Put adds or replaces a habit check.
func (r *Registry) Put(c Check) error {
	if err := c.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.checks[c.ID] = c
	return nil
}

// Get returns the check with the given ID.
func (r *Registry) Get(id string) (Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checks[id]
	return c, ok
}

// SetEnabled toggles a habit on or off. It returns false when the habit
// does not exist.
func (r *Registry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checks[id]
	if !ok {
		return false
	}
	c.Enabled = enabled
	r.checks[id] = c
	return true
}

// Enabled returns the enabled checks in registration order.
func (r *Registry) Enabled() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Check
	for _, id := range r.order {
		if c := r.checks[id]; c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// All returns every check in registration order.
func (r *Registry) All() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Check, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.checks[id])
	}
	return out
}

// LoadFile parses a JSON array of habit definitions.
func LoadFile(path string) ([]Check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("habits: read %s: %w", path, err)
	}
	var checks []Check
	if err := json.Unmarshal(data, &checks); err != nil {
		return nil, fmt.Errorf("habits: parse %s: %w", path, err)
	}
	for _, c := range checks {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("habits: %s: %w", path, err)
		}
	}
	return checks, nil
}

// MergeFile loads custom habits from path into the registry, replacing
// built-ins with the same ID.
func (r *Registry) MergeFile(path string) error {
	checks, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, c := range checks {
		if err := r.Put(c); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the current habit definitions as indented JSON, sorted by
// ID so the output is stable.
func (r *Registry) SaveFile(path string) error {
	checks := r.All()
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID < checks[j].ID })
	data, err := json.MarshalIndent(checks, "", "  ")
	if err != nil {
		return fmt.Errorf("habits: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("habits: write %s: %w", path, err)
	}
	return nil
}

// Package vision runs the configured habit prompts against a comparison
// collage using a local Ollama vision model.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agent-api/core/agent"

	"github.com/bdougie/badbits/internal/habits"
)

// Result is the outcome of one habit check on one frame.
type Result struct {
	Habit     string    `json:"habit"`
	Active    bool      `json:"active"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusText returns a short human-readable status.
func (r Result) StatusText() string {
	if r.Active {
		return strings.ToUpper(strings.ReplaceAll(r.Habit, "_", " ")) + ": DETECTED"
	}
	return strings.ToUpper(strings.ReplaceAll(r.Habit, "_", " ")) + ": OK"
}

// Querier asks the vision model a question about an image on disk. It exists
// so tests can stub the model.
type Querier interface {
	Query(ctx context.Context, prompt, imagePath string) (string, error)
}

// AgentQuerier adapts an agent-api vision agent to the Querier interface.
type AgentQuerier struct {
	agent *agent.Agent
}

// NewAgentQuerier wraps a vision agent.
func NewAgentQuerier(a *agent.Agent) *AgentQuerier {
	return &AgentQuerier{agent: a}
}

// Query sends the prompt and image to the model and returns the raw answer.
func (q *AgentQuerier) Query(ctx context.Context, prompt, imagePath string) (string, error) {
	response, err := q.agent.Run(
		ctx,
		agent.WithInput(prompt),
		agent.WithImagePath(imagePath),
	)
	if err != nil {
		return "", err
	}
	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}
	return response.Messages[len(response.Messages)-1].Content, nil
}

// Analyzer evaluates enabled habit checks against a collage image.
type Analyzer struct {
	querier Querier
	reg     *habits.Registry
	logger  *slog.Logger
}

// NewAnalyzer builds an analyzer over the given model querier and habit set.
func NewAnalyzer(q Querier, reg *habits.Registry, logger *slog.Logger) *Analyzer {
	return &Analyzer{querier: q, reg: reg, logger: logger}
}

// Analyze runs every enabled habit prompt against the collage at collagePath
// and returns one Result per habit. A model failure on one habit aborts the
// whole check; partial results are worse than a skipped cycle.
func (a *Analyzer) Analyze(ctx context.Context, collagePath string) ([]Result, error) {
	now := time.Now()
	enabled := a.reg.Enabled()
	if len(enabled) == 0 {
		return []Result{{
			Habit:     "no_checks",
			Active:    false,
			Details:   "No habit checks enabled",
			Timestamp: now,
		}}, nil
	}

	results := make([]Result, 0, len(enabled))
	for _, h := range enabled {
		answer, err := a.querier.Query(ctx, h.Prompt, collagePath)
		if err != nil {
			return nil, fmt.Errorf("vision: habit %s: %w", h.ID, err)
		}

		active, binary := ParseAnswer(answer)
		if !binary {
			a.logger.Warn("vision: non-binary model answer, treated as no",
				slog.String("habit", h.ID),
				slog.String("answer", answer))
		}

		results = append(results, Result{
			Habit:     h.ID,
			Active:    active,
			Timestamp: now,
		})
	}
	return results, nil
}

// ParseAnswer normalizes a model answer into a detection flag. Only an
// affirmative "yes" (allowing trailing punctuation) counts as a detection;
// the second return value reports whether the answer was a clean yes/no.
func ParseAnswer(answer string) (active bool, binary bool) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	normalized = strings.TrimRight(normalized, ".,!")
	switch normalized {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}

package vision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/agent-api/ollama"
	"github.com/go-logr/logr"

	"github.com/bdougie/badbits/internal/config"
)

const systemPrompt = "You are a visual analysis assistant that answers strict yes/no questions " +
	"about a person's posture and habits in webcam images. Answer with ONLY the single word " +
	"'yes' or 'no'. Never explain."

// NewAgent initializes a vision agent backed by a local Ollama instance.
func NewAgent(ctx context.Context, cfg config.ModelConfig, logger *slog.Logger) (*agent.Agent, error) {
	if err := pingOllama(ctx, cfg); err != nil {
		return nil, fmt.Errorf("vision: ollama not reachable at %s:%d: %w", cfg.BaseURL, cfg.Port, err)
	}

	// agent-api logs through logr; bridge the application's slog handler.
	agentLogger := logr.FromSlogHandler(logger.Handler())

	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  &agentLogger,
		BaseURL: cfg.BaseURL,
		Port:    cfg.Port,
	})

	if err := provider.UseModel(ctx, &core.Model{ID: cfg.ID}); err != nil {
		return nil, fmt.Errorf("vision: select model %s: %w", cfg.ID, err)
	}

	a, err := agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&agentLogger),
		bootstrap.WithSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("vision: create agent: %w", err)
	}
	return a, nil
}

// pingOllama checks that the Ollama API answers before monitoring starts.
func pingOllama(ctx context.Context, cfg config.ModelConfig) error {
	url := fmt.Sprintf("%s:%d/api/tags", cfg.BaseURL, cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

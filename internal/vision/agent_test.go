package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/go-logr/logr"
)

// cannedProvider answers every generation request with a fixed message.
type cannedProvider struct {
	answer string
	err    error

	model  *core.Model
	images int
}

func (p *cannedProvider) GetCapabilities(ctx context.Context) (*core.Capabilities, error) {
	return nil, nil
}

func (p *cannedProvider) UseModel(ctx context.Context, model *core.Model) error {
	p.model = model
	return nil
}

func (p *cannedProvider) Generate(ctx context.Context, opts *core.GenerateOptions) (*core.Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	for _, m := range opts.Messages {
		p.images += len(m.Images)
	}
	return &core.Message{
		Role:    core.AssistantMessageRole,
		Content: p.answer,
	}, nil
}

func (p *cannedProvider) GenerateStream(ctx context.Context, opts *core.GenerateOptions) (<-chan *core.Message, <-chan string, <-chan error) {
	return nil, nil, nil
}

func newTestAgent(t *testing.T, provider core.Provider) *agent.Agent {
	t.Helper()
	logger := logr.FromSlogHandler(slog.DiscardHandler)
	a, err := agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&logger),
		bootstrap.WithSystemPrompt(systemPrompt),
	)
	if err != nil {
		t.Fatalf("agent.NewAgent: %v", err)
	}
	return a
}

func writeTestJPEG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "frame.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAgentQuerier(t *testing.T) {
	provider := &cannedProvider{answer: "yes"}
	q := NewAgentQuerier(newTestAgent(t, provider))

	answer, err := q.Query(context.Background(), "Is the person slouching?", writeTestJPEG(t))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "yes" {
		t.Errorf("answer = %q, want yes", answer)
	}
	if provider.images == 0 {
		t.Error("image was not attached to the generation request")
	}
}

func TestAgentQuerierProviderError(t *testing.T) {
	provider := &cannedProvider{err: fmt.Errorf("model exploded")}
	q := NewAgentQuerier(newTestAgent(t, provider))

	if _, err := q.Query(context.Background(), "Is the person slouching?", writeTestJPEG(t)); err == nil {
		t.Error("expected provider error to propagate")
	}
}

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// EmbeddingDim is the output dimension of the embedding model; the Postgres
// schema's vector column must match it.
const EmbeddingDim = 768

const defaultEmbeddingModel = "nomic-embed-text"

// EmbeddingResult carries one generated embedding.
type EmbeddingResult struct {
	Content   string
	Embedding []float32
	Error     error
}

type embeddingWork struct {
	content string
	result  chan<- EmbeddingResult
}

// EmbeddingService generates text embeddings through the local Ollama
// embeddings endpoint, with a worker pool and an in-memory cache.
type EmbeddingService struct {
	endpoint string
	model    string
	client   *http.Client

	workQueue chan embeddingWork
	cache     sync.Map
	wg        sync.WaitGroup
}

// NewEmbeddingService starts numWorkers goroutines serving embedding
// requests against the Ollama instance at baseURL:port.
func NewEmbeddingService(baseURL string, port, numWorkers int) *EmbeddingService {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	s := &EmbeddingService{
		endpoint:  fmt.Sprintf("%s:%d/api/embeddings", baseURL, port),
		model:     defaultEmbeddingModel,
		client:    &http.Client{Timeout: 30 * time.Second},
		workQueue: make(chan embeddingWork, 100),
	}
	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *EmbeddingService) worker() {
	defer s.wg.Done()
	for work := range s.workQueue {
		if cached, ok := s.cache.Load(work.content); ok {
			if embedding, valid := cached.([]float32); valid {
				work.result <- EmbeddingResult{Content: work.content, Embedding: embedding}
				continue
			}
		}

		embedding, err := s.generate(context.Background(), work.content)
		if err == nil {
			s.cache.Store(work.content, embedding)
		}
		work.result <- EmbeddingResult{
			Content:   work.content,
			Embedding: embedding,
			Error:     err,
		}
	}
}

// GetEmbedding requests an embedding asynchronously. The returned channel
// receives exactly one result.
func (s *EmbeddingService) GetEmbedding(content string) <-chan EmbeddingResult {
	resultChan := make(chan EmbeddingResult, 1)
	select {
	case s.workQueue <- embeddingWork{content: content, result: resultChan}:
	default:
		resultChan <- EmbeddingResult{
			Content: content,
			Error:   fmt.Errorf("embedding queue is full, try again later"),
		}
		close(resultChan)
	}
	return resultChan
}

// Embed generates an embedding synchronously.
func (s *EmbeddingService) Embed(ctx context.Context, content string) ([]float32, error) {
	select {
	case r := <-s.GetEmbedding(content):
		return r.Embedding, r.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (s *EmbeddingService) generate(ctx context.Context, content string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: s.model, Prompt: content})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings request: unexpected status %s", resp.Status)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embeddings response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response: empty embedding")
	}
	return parsed.Embedding, nil
}

// Close shuts the service down and waits for in-flight work.
func (s *EmbeddingService) Close() {
	close(s.workQueue)
	s.wg.Wait()
}

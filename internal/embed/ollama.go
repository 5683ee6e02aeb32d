package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// Ollama API constants
const (
	// DefaultOllamaHost is the default Ollama API endpoint
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is a MiniLM build served by Ollama, dimension-compatible with DefaultModel.
	DefaultOllamaModel = "all-minilm"

	// OllamaConnectTimeout for availability checks
	OllamaConnectTimeout = 5 * time.Second
)

// OllamaConfig configures the Ollama embedder
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434)
	Host string

	// Model is the embedding model to use
	Model string

	// Timeout for API requests (default: 30s)
	Timeout time.Duration

	// Retry wraps each request. The zero value makes exactly one attempt.
	Retry verrors.RetryConfig
}

// ollamaEmbedRequest is the /api/embed request body.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbedResponse keeps the embeddings field raw so it goes through
// the same shape normalization as every other provider.
type ollamaEmbedResponse struct {
	Model      string          `json:"model"`
	Embeddings json.RawMessage `json:"embeddings"`
}

// OllamaEmbedder generates embeddings using Ollama's HTTP API
type OllamaEmbedder struct {
	client *http.Client
	config OllamaConfig

	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. No request is made until
// the first Embed call.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &OllamaEmbedder{
		client: &http.Client{Transport: &http.Transport{IdleConnTimeout: 10 * time.Second}},
		config: cfg,
	}
}

// Embed generates embedding for a single text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, verrors.ProviderError("embedder is closed", nil)
	}
	e.mu.RUnlock()

	vec, err := verrors.RetryWithResult(ctx, e.config.Retry, func() ([]float32, error) {
		return e.doEmbed(ctx, text)
	})
	if err != nil {
		if verrors.GetCode(err) == verrors.ErrCodeEmbeddingFailed {
			return nil, err
		}
		return nil, verrors.ProviderError("embedding provider call failed", err)
	}
	return vec, nil
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, verrors.New(verrors.ErrCodeNetworkTimeout, "embedding request timed out", err)
		}
		return nil, verrors.New(verrors.ErrCodeNetworkUnavailable, "failed to connect to Ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, verrors.ProviderError(fmt.Sprintf("embedding failed with status %d", resp.StatusCode), nil).
			WithDetail("body", truncate(strings.TrimSpace(string(respBody)), 200))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, verrors.ProviderError("failed to decode response", err)
	}

	vec, err := DecodeVector(result.Embeddings)
	if err != nil {
		return nil, verrors.ProviderError("malformed embedding response", err)
	}
	return vec, nil
}

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Available checks that the Ollama server answers.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, OllamaConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.client.CloseIdleConnections()
		e.closed = true
	}
	return nil
}

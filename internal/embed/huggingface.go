package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// Hugging Face inference constants
const (
	// DefaultHuggingFaceEndpoint serves feature-extraction for hosted models.
	DefaultHuggingFaceEndpoint = "https://router.huggingface.co/hf-inference/models"

	// HuggingFacePoolSize for connection pool
	HuggingFacePoolSize = 4
)

// HuggingFaceConfig configures the Hugging Face feature-extraction client.
type HuggingFaceConfig struct {
	// Endpoint is the base URL; the model path and pipeline are appended.
	Endpoint string

	// Model is the hosted sentence-embedding model.
	Model string

	// Token is the API credential. Required.
	Token string

	// Timeout for a single request (default: 30s)
	Timeout time.Duration

	// Retry wraps the request. The zero value makes exactly one attempt.
	Retry verrors.RetryConfig
}

// HuggingFaceEmbedder calls the Hugging Face feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	client *http.Client
	config HuggingFaceConfig

	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*HuggingFaceEmbedder)(nil)

// NewHuggingFaceEmbedder creates the client. It fails immediately when no
// token is configured so the process never starts serving without one.
func NewHuggingFaceEmbedder(cfg HuggingFaceConfig) (*HuggingFaceEmbedder, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, verrors.New(verrors.ErrCodeMissingCredential, "HUGGINGFACE_TOKEN is required", nil).
			WithSuggestion("export HUGGINGFACE_TOKEN or set embeddings.huggingface_token")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultHuggingFaceEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        HuggingFacePoolSize,
		MaxIdleConnsPerHost: HuggingFacePoolSize,
		IdleConnTimeout:     30 * time.Second,
	}

	return &HuggingFaceEmbedder{
		client: &http.Client{Transport: transport},
		config: cfg,
	}, nil
}

// Embed generates the embedding for text. Failures of any kind, including
// payloads that cannot be normalized, are returned as provider errors.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
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
		slog.Debug("embedding_failed",
			slog.String("provider", string(ProviderHuggingFace)),
			slog.String("model", e.config.Model),
			slog.String("error", err.Error()))
		if verrors.GetCode(err) == verrors.ErrCodeEmbeddingFailed {
			return nil, err
		}
		return nil, verrors.ProviderError("embedding provider call failed", err)
	}
	return vec, nil
}

func (e *HuggingFaceEmbedder) pipelineURL() string {
	return strings.TrimRight(e.config.Endpoint, "/") + "/" + e.config.Model + "/pipeline/feature-extraction"
}

func (e *HuggingFaceEmbedder) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.pipelineURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.Token)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, verrors.New(verrors.ErrCodeNetworkTimeout, "embedding request timed out", err)
		}
		return nil, verrors.New(verrors.ErrCodeNetworkUnavailable, "embedding provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, verrors.New(verrors.ErrCodeNetworkUnavailable, "failed to read embedding response", err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
		// Model loading or rate limited; safe to retry.
		return nil, verrors.New(verrors.ErrCodeNetworkUnavailable,
			fmt.Sprintf("provider returned status %d", resp.StatusCode), nil).
			WithDetail("body", truncate(string(payload), 200))
	case resp.StatusCode != http.StatusOK:
		return nil, verrors.ProviderError(fmt.Sprintf("provider returned status %d", resp.StatusCode), nil).
			WithDetail("body", truncate(string(payload), 200))
	}

	vec, err := DecodeVector(payload)
	if err != nil {
		return nil, verrors.ProviderError("malformed embedding response", err)
	}
	return vec, nil
}

// ModelName returns the model identifier.
func (e *HuggingFaceEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the client is open and configured.
func (e *HuggingFaceEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed && e.config.Token != ""
}

// Close releases idle connections.
func (e *HuggingFaceEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.client.CloseIdleConnections()
		e.closed = true
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderHuggingFace calls the hosted Hugging Face inference API (default).
	ProviderHuggingFace ProviderType = "huggingface"

	// ProviderOllama uses a local Ollama server.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings (offline, no credentials).
	ProviderStatic ProviderType = "static"
)

// Config selects and configures a provider. It is filled from the
// application config by the caller; this package does not read files or env.
type Config struct {
	Provider   ProviderType
	Model      string
	Token      string
	Endpoint   string
	OllamaHost string
	Timeout    time.Duration
	MaxRetries int
}

// ParseProvider converts a config string into a ProviderType.
// An empty string selects the default provider.
func ParseProvider(s string) (ProviderType, error) {
	switch ProviderType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderHuggingFace:
		return ProviderHuggingFace, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderStatic:
		return ProviderStatic, nil
	default:
		return "", verrors.ConfigError(fmt.Sprintf("unknown embeddings provider %q", s), nil)
	}
}

// NewEmbedder creates the configured provider. There is no silent fallback:
// a misconfigured provider is an error at startup, not at first query.
func NewEmbedder(_ context.Context, cfg Config) (Embedder, error) {
	retry := verrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}

	var (
		embedder Embedder
		err      error
	)
	switch provider {
	case ProviderHuggingFace:
		embedder, err = NewHuggingFaceEmbedder(HuggingFaceConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			Token:    cfg.Token,
			Timeout:  cfg.Timeout,
			Retry:    retry,
		})
	case ProviderOllama:
		model := cfg.Model
		if model == DefaultModel {
			model = DefaultOllamaModel
		}
		embedder = NewOllamaEmbedder(OllamaConfig{
			Host:    cfg.OllamaHost,
			Model:   model,
			Timeout: cfg.Timeout,
			Retry:   retry,
		})
	case ProviderStatic:
		embedder = NewStaticEmbedder()
	default:
		return nil, verrors.ConfigError(fmt.Sprintf("unknown embeddings provider %q", provider), nil)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("embedder_created",
		slog.String("provider", string(provider)),
		slog.String("model", embedder.ModelName()))
	return embedder, nil
}

// Package config loads personalvault settings from defaults, YAML files and
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/personalvault/internal/embed"
	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
)

// File and directory names.
const (
	// AppName names the user config directory and the data directory.
	AppName = "personalvault"

	// ProjectConfigName is the per-directory config file (".yml" is also accepted).
	ProjectConfigName = ".personalvault.yaml"

	// DatabaseFileName is the SQLite file inside the data directory.
	DatabaseFileName = "vault.db"

	// TokenEnv is the conventional Hugging Face credential variable.
	TokenEnv = "HUGGINGFACE_TOKEN"
)

// Config represents the complete personalvault configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
}

// SearchConfig holds the ranking constants. A weight, boost or threshold
// written as 0 in a file switches that signal off; a missing key keeps
// the value from the previous layer.
type SearchConfig struct {
	NoteSemanticWeight  float64 `yaml:"note_semantic_weight" json:"note_semantic_weight"`
	VaultSemanticWeight float64 `yaml:"vault_semantic_weight" json:"vault_semantic_weight"`
	LexicalWeight       float64 `yaml:"lexical_weight" json:"lexical_weight"`
	TitleBoost          float64 `yaml:"title_boost" json:"title_boost"`
	TagBoost            float64 `yaml:"tag_boost" json:"tag_boost"`
	Threshold           float64 `yaml:"threshold" json:"threshold"`
	ChatThreshold       float64 `yaml:"chat_threshold" json:"chat_threshold"`
	MaxResults          int     `yaml:"max_results" json:"max_results"`
	MinTokenLength      int     `yaml:"min_token_length" json:"min_token_length"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is huggingface (default), ollama or static.
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`

	HuggingFaceEndpoint string `yaml:"huggingface_endpoint" json:"huggingface_endpoint"`

	// HuggingFaceToken is normally supplied through HUGGINGFACE_TOKEN.
	// It is never written back to disk or printed.
	HuggingFaceToken string `yaml:"huggingface_token,omitempty" json:"-"`

	OllamaHost string        `yaml:"ollama_host" json:"ollama_host"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`

	// MaxRetries is the number of retries after a failed provider call (default: 0).
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// StorageConfig configures the item store.
type StorageConfig struct {
	// Path is the SQLite database file (default: ~/.personalvault/vault.db).
	Path            string `yaml:"path" json:"path"`
	DecodeCacheSize int    `yaml:"decode_cache_size" json:"decode_cache_size"`
}

// ServerConfig configures the HTTP and MCP servers.
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	Transport string `yaml:"transport" json:"transport"`
}

// TelemetryConfig controls the local query statistics. Only daily counts
// are stored; query text never leaves memory.
type TelemetryConfig struct {
	Disabled      bool          `yaml:"disabled" json:"disabled"`
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	ranking := search.DefaultConfig()
	return &Config{
		Version: 1,
		Search: SearchConfig{
			NoteSemanticWeight:  ranking.NoteSemanticWeight,
			VaultSemanticWeight: ranking.VaultSemanticWeight,
			LexicalWeight:       ranking.LexicalWeight,
			TitleBoost:          ranking.TitleBoost,
			TagBoost:            ranking.TagBoost,
			Threshold:           ranking.Threshold,
			ChatThreshold:       ranking.ChatThreshold,
			MaxResults:          ranking.MaxResults,
			MinTokenLength:      ranking.MinTokenLength,
		},
		Embeddings: EmbeddingsConfig{
			Provider:            string(embed.ProviderHuggingFace),
			Model:               embed.DefaultModel,
			HuggingFaceEndpoint: embed.DefaultHuggingFaceEndpoint,
			OllamaHost:          embed.DefaultOllamaHost,
			Timeout:             embed.DefaultTimeout,
		},
		Storage: StorageConfig{
			Path:            filepath.Join(DefaultDataDir(), DatabaseFileName),
			DecodeCacheSize: store.DefaultDecodeCacheSize,
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8765",
			LogLevel:  "info",
			Transport: "stdio",
		},
		Telemetry: TelemetryConfig{
			FlushInterval: time.Minute,
		},
	}
}

// DefaultDataDir returns ~/.personalvault, or a temp-dir fallback when the
// home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "."+AppName)
	}
	return filepath.Join(home, "."+AppName)
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/personalvault/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/personalvault/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", AppName, "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/personalvault/config.yaml)
//  3. Project config (.personalvault.yaml in dir)
//  4. Environment variables (PERSONALVAULT_*, HUGGINGFACE_TOKEN)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.Storage.Path = ExpandHome(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourcePaths lists every file Load may read for dir, whether or not
// it exists: the user config and both project config spellings.
func SourcePaths(dir string) []string {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	return []string{
		GetUserConfigPath(),
		yamlPath,
		strings.TrimSuffix(yamlPath, ".yaml") + ".yml",
	}
}

// loadFromFile loads .personalvault.yaml, falling back to .personalvault.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := strings.TrimSuffix(yamlPath, ".yaml") + ".yml"
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return verrors.New(verrors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return verrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("Check the YAML syntax or regenerate it with 'personalvault config init --force'")
	}

	c.mergeWith(&parsed)

	var explicit searchOverrides
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return verrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	explicit.Search.apply(&c.Search)
	return nil
}

// searchOverrides records which float search keys a file sets, so an
// explicit 0 is told apart from an absent key.
type searchOverrides struct {
	Search searchFloats `yaml:"search"`
}

type searchFloats struct {
	NoteSemanticWeight  *float64 `yaml:"note_semantic_weight"`
	VaultSemanticWeight *float64 `yaml:"vault_semantic_weight"`
	LexicalWeight       *float64 `yaml:"lexical_weight"`
	TitleBoost          *float64 `yaml:"title_boost"`
	TagBoost            *float64 `yaml:"tag_boost"`
	Threshold           *float64 `yaml:"threshold"`
	ChatThreshold       *float64 `yaml:"chat_threshold"`
}

func (f searchFloats) apply(dst *SearchConfig) {
	setFloat(&dst.NoteSemanticWeight, f.NoteSemanticWeight)
	setFloat(&dst.VaultSemanticWeight, f.VaultSemanticWeight)
	setFloat(&dst.LexicalWeight, f.LexicalWeight)
	setFloat(&dst.TitleBoost, f.TitleBoost)
	setFloat(&dst.TagBoost, f.TagBoost)
	setFloat(&dst.Threshold, f.Threshold)
	setFloat(&dst.ChatThreshold, f.ChatThreshold)
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	mergeFloat(&c.Search.NoteSemanticWeight, other.Search.NoteSemanticWeight)
	mergeFloat(&c.Search.VaultSemanticWeight, other.Search.VaultSemanticWeight)
	mergeFloat(&c.Search.LexicalWeight, other.Search.LexicalWeight)
	mergeFloat(&c.Search.TitleBoost, other.Search.TitleBoost)
	mergeFloat(&c.Search.TagBoost, other.Search.TagBoost)
	mergeFloat(&c.Search.Threshold, other.Search.Threshold)
	mergeFloat(&c.Search.ChatThreshold, other.Search.ChatThreshold)
	mergeInt(&c.Search.MaxResults, other.Search.MaxResults)
	mergeInt(&c.Search.MinTokenLength, other.Search.MinTokenLength)

	mergeString(&c.Embeddings.Provider, other.Embeddings.Provider)
	mergeString(&c.Embeddings.Model, other.Embeddings.Model)
	mergeString(&c.Embeddings.HuggingFaceEndpoint, other.Embeddings.HuggingFaceEndpoint)
	mergeString(&c.Embeddings.HuggingFaceToken, other.Embeddings.HuggingFaceToken)
	mergeString(&c.Embeddings.OllamaHost, other.Embeddings.OllamaHost)
	if other.Embeddings.Timeout != 0 {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}
	mergeInt(&c.Embeddings.MaxRetries, other.Embeddings.MaxRetries)

	mergeString(&c.Storage.Path, other.Storage.Path)
	mergeInt(&c.Storage.DecodeCacheSize, other.Storage.DecodeCacheSize)

	mergeString(&c.Server.Addr, other.Server.Addr)
	mergeString(&c.Server.LogLevel, other.Server.LogLevel)
	mergeString(&c.Server.Transport, other.Server.Transport)

	if other.Telemetry.Disabled {
		c.Telemetry.Disabled = true
	}
	if other.Telemetry.FlushInterval != 0 {
		c.Telemetry.FlushInterval = other.Telemetry.FlushInterval
	}
}

// applyEnvOverrides applies PERSONALVAULT_* and HUGGINGFACE_TOKEN overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PERSONALVAULT_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("PERSONALVAULT_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("PERSONALVAULT_HUGGINGFACE_ENDPOINT"); v != "" {
		c.Embeddings.HuggingFaceEndpoint = v
	}
	if v := os.Getenv(TokenEnv); v != "" {
		c.Embeddings.HuggingFaceToken = v
	}
	if v := os.Getenv("PERSONALVAULT_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("PERSONALVAULT_EMBEDDINGS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("PERSONALVAULT_EMBEDDINGS_TIMEOUT", v, err)
		}
		c.Embeddings.Timeout = d
	}
	if v := os.Getenv("PERSONALVAULT_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("PERSONALVAULT_MAX_RETRIES", v, err)
		}
		c.Embeddings.MaxRetries = n
	}
	if v := os.Getenv("PERSONALVAULT_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("PERSONALVAULT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PERSONALVAULT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("PERSONALVAULT_TELEMETRY_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return envError("PERSONALVAULT_TELEMETRY_DISABLED", v, err)
		}
		c.Telemetry.Disabled = disabled
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"search.note_semantic_weight", c.Search.NoteSemanticWeight},
		{"search.vault_semantic_weight", c.Search.VaultSemanticWeight},
		{"search.lexical_weight", c.Search.LexicalWeight},
		{"search.title_boost", c.Search.TitleBoost},
		{"search.tag_boost", c.Search.TagBoost},
		{"search.threshold", c.Search.Threshold},
		{"search.chat_threshold", c.Search.ChatThreshold},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return invalid("%s must be between 0 and 1, got %g", w.name, w.value)
		}
	}

	if c.Search.MaxResults < 1 {
		return invalid("search.max_results must be at least 1, got %d", c.Search.MaxResults)
	}
	if c.Search.MinTokenLength < 1 {
		return invalid("search.min_token_length must be at least 1, got %d", c.Search.MinTokenLength)
	}

	if _, err := embed.ParseProvider(c.Embeddings.Provider); err != nil {
		return invalid("embeddings.provider must be 'huggingface', 'ollama' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.Timeout < 0 {
		return invalid("embeddings.timeout must be non-negative, got %s", c.Embeddings.Timeout)
	}
	if c.Embeddings.MaxRetries < 0 || c.Embeddings.MaxRetries > 10 {
		return invalid("embeddings.max_retries must be between 0 and 10, got %d", c.Embeddings.MaxRetries)
	}

	if c.Storage.DecodeCacheSize < 0 {
		return invalid("storage.decode_cache_size must be non-negative, got %d", c.Storage.DecodeCacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	if !strings.EqualFold(c.Server.Transport, "stdio") {
		return invalid("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	if c.Telemetry.FlushInterval < 0 {
		return invalid("telemetry.flush_interval must be non-negative, got %s", c.Telemetry.FlushInterval)
	}

	return nil
}

// RequireCredentials fails fast when the selected provider needs a token
// that is not configured.
func (c *Config) RequireCredentials() error {
	provider, err := embed.ParseProvider(c.Embeddings.Provider)
	if err != nil {
		return err
	}
	if provider == embed.ProviderHuggingFace && strings.TrimSpace(c.Embeddings.HuggingFaceToken) == "" {
		return verrors.New(verrors.ErrCodeMissingCredential, TokenEnv+" is not set", nil).
			WithSuggestion("Export " + TokenEnv + " or set PERSONALVAULT_EMBEDDINGS_PROVIDER=static for offline embeddings")
	}
	return nil
}

// RankingConfig returns the ranking constants for the search engine.
func (c *Config) RankingConfig() search.Config {
	return search.Config{
		NoteSemanticWeight:  c.Search.NoteSemanticWeight,
		VaultSemanticWeight: c.Search.VaultSemanticWeight,
		LexicalWeight:       c.Search.LexicalWeight,
		TitleBoost:          c.Search.TitleBoost,
		TagBoost:            c.Search.TagBoost,
		Threshold:           c.Search.Threshold,
		ChatThreshold:       c.Search.ChatThreshold,
		MaxResults:          c.Search.MaxResults,
		MinTokenLength:      c.Search.MinTokenLength,
	}
}

// EmbedderConfig returns the provider settings for embed.NewEmbedder.
func (c *Config) EmbedderConfig() (embed.Config, error) {
	provider, err := embed.ParseProvider(c.Embeddings.Provider)
	if err != nil {
		return embed.Config{}, err
	}
	return embed.Config{
		Provider:   provider,
		Model:      c.Embeddings.Model,
		Token:      c.Embeddings.HuggingFaceToken,
		Endpoint:   c.Embeddings.HuggingFaceEndpoint,
		OllamaHost: c.Embeddings.OllamaHost,
		Timeout:    c.Embeddings.Timeout,
		MaxRetries: c.Embeddings.MaxRetries,
	}, nil
}

// StoreOptions returns the SQLite store options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{DecodeCacheSize: c.Storage.DecodeCacheSize}
}

// DataDir is the directory holding the database and the server lock.
func (c *Config) DataDir() string {
	return filepath.Dir(c.Storage.Path)
}

// WriteYAML writes the configuration to a YAML file. The token is omitted.
func (c *Config) WriteYAML(path string) error {
	out := *c
	out.Embeddings.HuggingFaceToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func invalid(format string, args ...any) error {
	return verrors.ConfigError(fmt.Sprintf(format, args...), nil)
}

func envError(name, value string, err error) error {
	return verrors.ConfigError(fmt.Sprintf("invalid %s=%q", name, value), err)
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

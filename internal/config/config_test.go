package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/personalvault/internal/embed"
	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/search"
)

var envVars = []string{
	"PERSONALVAULT_EMBEDDINGS_PROVIDER",
	"PERSONALVAULT_EMBEDDINGS_MODEL",
	"PERSONALVAULT_HUGGINGFACE_ENDPOINT",
	"PERSONALVAULT_OLLAMA_HOST",
	"PERSONALVAULT_EMBEDDINGS_TIMEOUT",
	"PERSONALVAULT_MAX_RETRIES",
	"PERSONALVAULT_DB_PATH",
	"PERSONALVAULT_ADDR",
	"PERSONALVAULT_LOG_LEVEL",
	"PERSONALVAULT_TELEMETRY_DISABLED",
	TokenEnv,
}

// isolate points HOME and XDG_CONFIG_HOME at temp dirs and clears overrides.
func isolate(t *testing.T) (home, xdg string) {
	t.Helper()
	home = t.TempDir()
	xdg = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, name := range envVars {
		t.Setenv(name, "")
	}
	return home, xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	home, _ := isolate(t)

	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, search.DefaultConfig(), cfg.RankingConfig())
	assert.Equal(t, "huggingface", cfg.Embeddings.Provider)
	assert.Equal(t, embed.DefaultModel, cfg.Embeddings.Model)
	assert.Equal(t, embed.DefaultTimeout, cfg.Embeddings.Timeout)
	assert.Equal(t, 0, cfg.Embeddings.MaxRetries)
	assert.Equal(t, filepath.Join(home, ".personalvault", "vault.db"), cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.NoError(t, cfg.Validate())
}

func TestGetUserConfigPath_FollowsXDG(t *testing.T) {
	_, xdg := isolate(t)

	assert.Equal(t, filepath.Join(xdg, "personalvault", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}

func TestSourcePaths(t *testing.T) {
	_, xdg := isolate(t)
	dir := t.TempDir()

	assert.Equal(t, []string{
		filepath.Join(xdg, "personalvault", "config.yaml"),
		filepath.Join(dir, ".personalvault.yaml"),
		filepath.Join(dir, ".personalvault.yml"),
	}, SourcePaths(dir))
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_Precedence(t *testing.T) {
	_, xdg := isolate(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(xdg, "personalvault", "config.yaml"), `
search:
  threshold: 0.2
  max_results: 5
embeddings:
  provider: ollama
server:
  log_level: warn
`)
	writeFile(t, filepath.Join(dir, ".personalvault.yaml"), `
search:
  max_results: 4
embeddings:
  timeout: 5s
`)
	t.Setenv("PERSONALVAULT_LOG_LEVEL", "debug")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Search.Threshold, "user config applies")
	assert.Equal(t, 4, cfg.Search.MaxResults, "project config overrides user config")
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 5*time.Second, cfg.Embeddings.Timeout)
	assert.Equal(t, "debug", cfg.Server.LogLevel, "env overrides files")
	assert.Equal(t, 0.7, cfg.Search.NoteSemanticWeight, "unset fields keep defaults")
}

func TestLoad_ExplicitZeroSearchValues(t *testing.T) {
	_, xdg := isolate(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(xdg, "personalvault", "config.yaml"), "search:\n  threshold: 0.2\n")
	writeFile(t, filepath.Join(dir, ".personalvault.yaml"), `
search:
  threshold: 0
  tag_boost: 0
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Zero(t, cfg.Search.Threshold, "an explicit 0 overrides the user config")
	assert.Zero(t, cfg.Search.TagBoost, "an explicit 0 overrides the default")
	assert.Equal(t, 0.2, cfg.Search.TitleBoost, "absent keys keep the default")
	assert.Zero(t, cfg.RankingConfig().Threshold)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".personalvault.yml"), "search:\n  tag_boost: 0.3\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Search.TagBoost)
}

func TestLoad_YamlTakesPrecedenceOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".personalvault.yaml"), "search:\n  tag_boost: 0.3\n")
	writeFile(t, filepath.Join(dir, ".personalvault.yml"), "search:\n  tag_boost: 0.4\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Search.TagBoost)
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".personalvault.yaml"), "search: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, verrors.ErrCodeConfigInvalid, verrors.GetCode(err))
}

func TestLoad_EnvOverrides(t *testing.T) {
	home, _ := isolate(t)
	t.Setenv("PERSONALVAULT_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("PERSONALVAULT_EMBEDDINGS_MODEL", "custom/model")
	t.Setenv("PERSONALVAULT_HUGGINGFACE_ENDPOINT", "http://localhost:9000")
	t.Setenv("PERSONALVAULT_OLLAMA_HOST", "http://ollama:11434")
	t.Setenv("PERSONALVAULT_EMBEDDINGS_TIMEOUT", "750ms")
	t.Setenv("PERSONALVAULT_MAX_RETRIES", "2")
	t.Setenv("PERSONALVAULT_DB_PATH", "~/vaults/test.db")
	t.Setenv("PERSONALVAULT_ADDR", ":9999")
	t.Setenv(TokenEnv, "hf_secret")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "custom/model", cfg.Embeddings.Model)
	assert.Equal(t, "http://localhost:9000", cfg.Embeddings.HuggingFaceEndpoint)
	assert.Equal(t, "http://ollama:11434", cfg.Embeddings.OllamaHost)
	assert.Equal(t, 750*time.Millisecond, cfg.Embeddings.Timeout)
	assert.Equal(t, 2, cfg.Embeddings.MaxRetries)
	assert.Equal(t, filepath.Join(home, "vaults", "test.db"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(home, "vaults"), cfg.DataDir())
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "hf_secret", cfg.Embeddings.HuggingFaceToken)
}

func TestLoad_InvalidEnvValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"PERSONALVAULT_EMBEDDINGS_TIMEOUT", "soon"},
		{"PERSONALVAULT_MAX_RETRIES", "many"},
		{"PERSONALVAULT_EMBEDDINGS_PROVIDER", "mlx"},
		{"PERSONALVAULT_LOG_LEVEL", "verbose"},
		{"PERSONALVAULT_TELEMETRY_DISABLED", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.name, tt.value)

			_, err := Load(t.TempDir())

			require.Error(t, err)
			assert.Equal(t, verrors.CategoryConfig, verrors.GetCategory(err))
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"negative weight", func(c *Config) { c.Search.LexicalWeight = -0.1 }, "search.lexical_weight"},
		{"weight above one", func(c *Config) { c.Search.NoteSemanticWeight = 1.5 }, "search.note_semantic_weight"},
		{"threshold above one", func(c *Config) { c.Search.ChatThreshold = 2 }, "search.chat_threshold"},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }, "search.max_results"},
		{"zero token length", func(c *Config) { c.Search.MinTokenLength = 0 }, "search.min_token_length"},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }, "embeddings.provider"},
		{"negative timeout", func(c *Config) { c.Embeddings.Timeout = -time.Second }, "embeddings.timeout"},
		{"too many retries", func(c *Config) { c.Embeddings.MaxRetries = 11 }, "embeddings.max_retries"},
		{"negative cache", func(c *Config) { c.Storage.DecodeCacheSize = -1 }, "storage.decode_cache_size"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, "server.log_level"},
		{"bad transport", func(c *Config) { c.Server.Transport = "sse" }, "server.transport"},
		{"negative flush", func(c *Config) { c.Telemetry.FlushInterval = -time.Second }, "telemetry.flush_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_Telemetry(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.Telemetry.Disabled)
	assert.Equal(t, time.Minute, cfg.Telemetry.FlushInterval)

	writeFile(t, filepath.Join(dir, ProjectConfigName), "telemetry:\n  flush_interval: 5s\n")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.FlushInterval)
	assert.False(t, cfg.Telemetry.Disabled)

	t.Setenv("PERSONALVAULT_TELEMETRY_DISABLED", "true")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Disabled)
}

func TestValidate_AcceptsCaseInsensitiveValues(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = "Static"
	cfg.Server.LogLevel = "WARN"

	assert.NoError(t, cfg.Validate())
}

func TestRequireCredentials(t *testing.T) {
	cfg := NewConfig()

	err := cfg.RequireCredentials()
	require.Error(t, err)
	assert.Equal(t, verrors.ErrCodeMissingCredential, verrors.GetCode(err))
	assert.Contains(t, err.Error(), TokenEnv)

	cfg.Embeddings.HuggingFaceToken = "hf_x"
	assert.NoError(t, cfg.RequireCredentials())

	cfg.Embeddings.HuggingFaceToken = ""
	cfg.Embeddings.Provider = "static"
	assert.NoError(t, cfg.RequireCredentials(), "static needs no token")

	cfg.Embeddings.Provider = "ollama"
	assert.NoError(t, cfg.RequireCredentials(), "ollama needs no token")
}

func TestEmbedderConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = "ollama"
	cfg.Embeddings.HuggingFaceToken = "hf_x"
	cfg.Embeddings.MaxRetries = 1

	ec, err := cfg.EmbedderConfig()

	require.NoError(t, err)
	assert.Equal(t, embed.ProviderOllama, ec.Provider)
	assert.Equal(t, "hf_x", ec.Token)
	assert.Equal(t, embed.DefaultOllamaHost, ec.OllamaHost)
	assert.Equal(t, 1, ec.MaxRetries)

	cfg.Embeddings.Provider = "bogus"
	_, err = cfg.EmbedderConfig()
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.DecodeCacheSize = 16

	assert.Equal(t, 16, cfg.StoreOptions().DecodeCacheSize)
}

func TestWriteYAML_OmitsTokenAndRoundTrips(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := NewConfig()
	cfg.Embeddings.HuggingFaceToken = "hf_secret"
	cfg.Search.MaxResults = 7

	require.NoError(t, cfg.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hf_secret")
	assert.NotContains(t, string(data), "huggingface_token")
	assert.Contains(t, string(data), "timeout: 30s")
	assert.Equal(t, "hf_secret", cfg.Embeddings.HuggingFaceToken, "caller's config is untouched")

	var parsed Config
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, 7, parsed.Search.MaxResults)
	assert.Equal(t, cfg.Embeddings.Timeout, parsed.Embeddings.Timeout)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExpandHome(t *testing.T) {
	home, _ := isolate(t)

	assert.Equal(t, filepath.Join(home, "a", "b.db"), ExpandHome("~/a/b.db"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs/path.db", ExpandHome("/abs/path.db"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

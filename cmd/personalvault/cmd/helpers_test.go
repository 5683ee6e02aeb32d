package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/personalvault/internal/profiling"
)

// isolate points config, data and logs at a temp home, moves into it and
// selects the offline static embedder. It returns the home directory.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{
		"PERSONALVAULT_EMBEDDINGS_MODEL",
		"PERSONALVAULT_HUGGINGFACE_ENDPOINT",
		"PERSONALVAULT_OLLAMA_HOST",
		"PERSONALVAULT_EMBEDDINGS_TIMEOUT",
		"PERSONALVAULT_MAX_RETRIES",
		"PERSONALVAULT_ADDR",
		"PERSONALVAULT_LOG_LEVEL",
		"PERSONALVAULT_TELEMETRY_DISABLED",
		"HUGGINGFACE_TOKEN",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("PERSONALVAULT_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("PERSONALVAULT_DB_PATH", filepath.Join(home, "data", "vault.db"))
	t.Chdir(home)

	return home
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	stopProfiling()
	closeLogging()
	profileOpts = profiling.Options{}
	return buf.String(), err
}

// mustExecute is execute that fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()

	out, err := execute(t, args...)
	require.NoError(t, err, "output: %s", out)
	return out
}

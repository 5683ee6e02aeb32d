package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/personalvault/internal/store"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{
			name:     "required pass is not critical",
			result:   CheckResult{Status: StatusPass, Required: true},
			expected: false,
		},
		{
			name:     "required fail is critical",
			result:   CheckResult{Status: StatusFail, Required: true},
			expected: true,
		},
		{
			name:     "optional fail is not critical",
			result:   CheckResult{Status: StatusFail, Required: false},
			expected: false,
		},
		{
			name:     "required warn is not critical",
			result:   CheckResult{Status: StatusWarn, Required: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestCheckStatus_MarshalText(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "database", Status: StatusWarn})

	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warn"`)
}

func TestFromError(t *testing.T) {
	ok := FromError("config", nil, true, "loaded")
	assert.Equal(t, CheckResult{Name: "config", Status: StatusPass, Message: "loaded", Required: true}, ok)

	failed := FromError("config", errors.New("bad yaml"), true, "loaded")
	assert.True(t, failed.IsCritical())
	assert.Equal(t, "bad yaml", failed.Message)

	warned := FromError("optional", errors.New("slow"), false, "")
	assert.Equal(t, StatusWarn, warned.Status)
}

func TestChecker_New(t *testing.T) {
	// Given: default options
	checker := New()

	// Then: checker is created with defaults
	assert.NotNil(t, checker)
	assert.False(t, checker.verbose)
	assert.Equal(t, os.Stdout, checker.output)
}

func TestChecker_NewWithOptions(t *testing.T) {
	// Given: custom options
	buf := &bytes.Buffer{}
	checker := New(
		WithVerbose(true),
		WithOutput(buf),
	)

	// Then: options are applied
	assert.True(t, checker.verbose)
	assert.Equal(t, buf, checker.output)
}

func TestChecker_HasCriticalFailures(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected bool
	}{
		{
			name:     "no results",
			results:  []CheckResult{},
			expected: false,
		},
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusPass, Required: true},
			},
			expected: false,
		},
		{
			name: "warning only",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusWarn, Required: false},
			},
			expected: false,
		},
		{
			name: "optional failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: false},
			},
			expected: false,
		},
		{
			name: "required failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: true},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_CheckWritePermissions_Writable(t *testing.T) {
	// Given: a data directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "data")

	// When: checking write permissions
	result := New().CheckWritePermissions(dir)

	// Then: passes, creates the directory and leaves no probe behind
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "data_dir", result.Name)
	assert.True(t, result.Required)
	assert.DirExists(t, dir)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	// Given: a read-only directory (skip on CI/root)
	if os.Getuid() == 0 {
		t.Skip("Skipping read-only test when running as root")
	}

	tmpDir := t.TempDir()
	readOnlyDir := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0555))
	defer func() { _ = os.Chmod(readOnlyDir, 0755) }() // Restore for cleanup

	// When: checking write permissions
	result := New().CheckWritePermissions(readOnlyDir)

	// Then: fails
	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_CheckDiskSpace_MissingPathUsesParent(t *testing.T) {
	result := New().CheckDiskSpace(filepath.Join(t.TempDir(), "not", "yet"))

	assert.NotEqual(t, StatusFail, result.Status, result.Message)
	assert.Contains(t, result.Message, "free")
}

func TestChecker_CheckDatabase(t *testing.T) {
	dir := t.TempDir()
	checker := New()

	// Missing file passes.
	missing := checker.CheckDatabase(filepath.Join(dir, "vault.db"))
	assert.Equal(t, StatusPass, missing.Status)
	assert.Contains(t, missing.Message, "not created yet")

	// A real vault passes.
	path := filepath.Join(dir, "vault.db")
	st, err := store.NewSQLiteStore(path, store.Options{})
	require.NoError(t, err)
	require.NoError(t, st.Close())
	good := checker.CheckDatabase(path)
	assert.Equal(t, StatusPass, good.Status)
	assert.Contains(t, good.Message, "integrity ok")

	// Garbage fails.
	bad := filepath.Join(dir, "bad.db")
	require.NoError(t, os.WriteFile(bad, []byte(strings.Repeat("garbage ", 200)), 0o600))
	result := checker.CheckDatabase(bad)
	assert.True(t, result.IsCritical())
}

type fakeEmbedder struct {
	available bool
}

func (f fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (f fakeEmbedder) ModelName() string                                 { return "fake-model" }
func (f fakeEmbedder) Available(context.Context) bool                    { return f.available }
func (f fakeEmbedder) Close() error                                      { return nil }

func TestChecker_CheckEmbedder(t *testing.T) {
	ctx := context.Background()
	checker := New()

	up := checker.CheckEmbedder(ctx, fakeEmbedder{available: true})
	assert.Equal(t, StatusPass, up.Status)
	assert.Equal(t, "fake-model reachable", up.Message)

	down := checker.CheckEmbedder(ctx, fakeEmbedder{})
	assert.Equal(t, StatusWarn, down.Status)
	assert.False(t, down.IsCritical())
}

func TestChecker_RunAll_ReturnsAllChecks(t *testing.T) {
	// Given: a fresh data directory and every optional dependency
	dir := filepath.Join(t.TempDir(), "data")
	checker := New()

	// When: running all checks
	results := checker.RunAll(context.Background(), Target{
		DataDir:     dir,
		DBPath:      filepath.Join(dir, "vault.db"),
		Credentials: func() error { return errors.New("HUGGINGFACE_TOKEN is not set") },
		Embedder:    fakeEmbedder{available: true},
	})

	// Then: every check ran, in order, and the missing token is critical
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"data_dir", "disk_space", "database", "credentials", "embedder"}, names)
	assert.True(t, checker.HasCriticalFailures(results))
	assert.Equal(t, "failed", checker.SummaryStatus(results))
}

func TestChecker_RunAll_SkipsOptional(t *testing.T) {
	dir := t.TempDir()

	results := New().RunAll(context.Background(), Target{DataDir: dir, DBPath: filepath.Join(dir, "vault.db")})

	assert.Len(t, results, 3)
}

func TestChecker_PrintResults(t *testing.T) {
	// Given: some check results
	results := []CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "50 GB free"},
		{Name: "embedder", Status: StatusWarn, Message: "all-MiniLM-L6-v2 is not reachable", Details: "model all-MiniLM-L6-v2"},
		{Name: "database", Status: StatusFail, Message: "database corrupted", Required: true},
	}

	buf := &bytes.Buffer{}
	checker := New(WithOutput(buf), WithVerbose(true))

	// When: printing results
	checker.PrintResults(results)

	// Then: output contains formatted results
	output := buf.String()
	assert.Contains(t, output, "[PASS] disk_space: 50 GB free")
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "[FAIL] database")
	assert.Contains(t, output, "      model all-MiniLM-L6-v2")
	assert.Contains(t, output, "Status: FAILED")
	assert.Contains(t, output, "1 error(s):\n  - database: database corrupted")
	assert.Contains(t, output, "1 warning(s):")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "2.0 KB", formatBytes(2048))
	assert.Equal(t, "100.0 MB", formatBytes(MinDiskSpaceBytes))
	assert.Equal(t, "1.5 GB", formatBytes(1536*1024*1024))
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusPass},
			},
			expected: "ready",
		},
		{
			name: "with warnings",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusWarn},
			},
			expected: "ready_with_warnings",
		},
		{
			name: "with critical failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: true},
			},
			expected: "failed",
		},
		{
			name: "with optional failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: false},
			},
			expected: "ready_with_warnings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
		})
	}
}

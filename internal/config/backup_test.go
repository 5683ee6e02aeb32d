package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupConfig_NoFile(t *testing.T) {
	backupPath, err := BackupConfig(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupConfig_CopiesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nembeddings:\n  provider: ollama\n"
	writeFile(t, path, content)

	backupPath, err := BackupConfig(path)

	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.Contains(t, filepath.Base(backupPath), "config.yaml.bak.")

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestBackupConfig_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "version: 1\n")

	// Pre-existing backups with known, older timestamps.
	for _, ts := range []string{"20240101-000000.000000000", "20240102-000000.000000000", "20240103-000000.000000000"} {
		writeFile(t, path+BackupSuffix+"."+ts, "old\n")
	}
	writeFile(t, filepath.Join(dir, "other.yaml.bak.20240101-000000.000000000"), "unrelated\n")

	newest, err := BackupConfig(path)
	require.NoError(t, err)

	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, newest, backups[0])
	assert.NotContains(t, backups, path+BackupSuffix+".20240101-000000.000000000")

	_, err = os.Stat(filepath.Join(dir, "other.yaml.bak.20240101-000000.000000000"))
	assert.NoError(t, err, "backups of other files are left alone")
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "missing", "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, backups)
}

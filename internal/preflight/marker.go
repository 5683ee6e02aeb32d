package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerFile is the name of the file that indicates preflight checks have passed.
const MarkerFile = ".preflight-passed"

// MaxMarkerAge is how long a passing run is trusted before checking again.
const MaxMarkerAge = 7 * 24 * time.Hour

// NeedsCheck returns true if the marker is missing, unreadable or older
// than MaxMarkerAge.
func NeedsCheck(dataDir string) bool {
	age, ok := markerTime(dataDir)
	if !ok {
		return true
	}
	return time.Since(age) > MaxMarkerAge
}

// MarkPassed records a passing run in dataDir, creating it if needed.
func MarkPassed(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	markerPath := filepath.Join(dataDir, MarkerFile)
	content := []byte(time.Now().UTC().Format(time.RFC3339) + "\n")
	return os.WriteFile(markerPath, content, 0o600)
}

// ClearMarker removes the marker file, forcing a re-check on next run.
func ClearMarker(dataDir string) error {
	err := os.Remove(filepath.Join(dataDir, MarkerFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove marker file: %w", err)
	}
	return nil
}

// MarkerAge returns how long ago the preflight check passed.
// Returns zero if marker doesn't exist.
func MarkerAge(dataDir string) time.Duration {
	t, ok := markerTime(dataDir)
	if !ok {
		return 0
	}
	return time.Since(t)
}

func markerTime(dataDir string) (time.Time, bool) {
	content, err := os.ReadFile(filepath.Join(dataDir, MarkerFile))
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(content)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

package cmd

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/personalvault/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	isolate(t)

	out := mustExecute(t, "version")
	assert.Contains(t, out, "personalvault "+version.Version)
	assert.Contains(t, out, "commit:")

	out = mustExecute(t, "version", "--short")
	assert.Equal(t, version.Version+"\n", out)
}

func TestVersionCmd_JSON(t *testing.T) {
	isolate(t)

	out := mustExecute(t, "version", "--json")

	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.Equal(t, runtime.GOOS, info.OS)
}

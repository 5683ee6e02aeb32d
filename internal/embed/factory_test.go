package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

func TestParseProvider(t *testing.T) {
	tests := map[string]ProviderType{
		"":            ProviderHuggingFace,
		"huggingface": ProviderHuggingFace,
		"Ollama":      ProviderOllama,
		" static ":    ProviderStatic,
	}
	for in, want := range tests {
		got, err := ParseProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProvider("mlx")
	assert.Error(t, err)
}

func TestNewEmbedder_HuggingFaceFailsFastWithoutToken(t *testing.T) {
	_, err := NewEmbedder(context.Background(), Config{Provider: ProviderHuggingFace})

	require.Error(t, err)
	assert.Equal(t, verrors.ErrCodeMissingCredential, verrors.GetCode(err))
}

func TestNewEmbedder_Providers(t *testing.T) {
	hf, err := NewEmbedder(context.Background(), Config{Token: "t"})
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceEmbedder{}, hf)
	assert.Equal(t, DefaultModel, hf.ModelName())

	ol, err := NewEmbedder(context.Background(), Config{Provider: ProviderOllama, Model: DefaultModel})
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaModel, ol.ModelName())

	st, err := NewEmbedder(context.Background(), Config{Provider: ProviderStatic})
	require.NoError(t, err)
	assert.Equal(t, "static", st.ModelName())

	_, err = NewEmbedder(context.Background(), Config{Provider: "bogus"})
	assert.Error(t, err)
}

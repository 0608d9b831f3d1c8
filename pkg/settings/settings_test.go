package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("FLOWSMITH_BASE_URL", "")
	t.Setenv("FLOWSMITH_MODEL", "")
	t.Setenv("FLOWSMITH_MAX_TOKENS", "")
	t.Setenv("FLOWSMITH_ALLOW_LOCAL_NETWORKS", "")

	st, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", st.APIKey)
	assert.Equal(t, DefaultBaseURL, st.BaseURL)
	assert.Equal(t, DefaultModel, st.Model)
	assert.Equal(t, DefaultMaxTokens, st.MaxTokens)
	assert.False(t, st.AllowLocalNetworks)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("FLOWSMITH_BASE_URL", "https://proxy.internal.example.com")
	t.Setenv("FLOWSMITH_MODEL", "claude-opus-4-20250514")
	t.Setenv("FLOWSMITH_MAX_TOKENS", "2048")
	t.Setenv("FLOWSMITH_ALLOW_LOCAL_NETWORKS", "true")

	st, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.internal.example.com", st.BaseURL)
	assert.Equal(t, "claude-opus-4-20250514", st.Model)
	assert.Equal(t, 2048, st.MaxTokens)
	assert.True(t, st.AllowLocalNetworks)
}

func TestNewFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewFromEnv()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewFromEnvInvalidMaxTokens(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("FLOWSMITH_MAX_TOKENS", "many")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLOWSMITH_MAX_TOKENS")
}

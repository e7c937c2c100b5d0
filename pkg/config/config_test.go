package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "https://api.anthropic.com", cfg.AnthropicBaseURL)
	assert.Equal(t, "claude-opus-4-1-20250805", cfg.ModelID)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER", ProviderGateway)
	t.Setenv("GATEWAY_URL", "http://litellm:4000")
	t.Setenv("MODEL_ID", "claude-sonnet-4-20250514")
	t.Setenv("MAX_TOKENS", "2048")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGateway, cfg.Provider)
	assert.Equal(t, "http://litellm:4000", cfg.GatewayURL)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.ModelID)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("PROVIDER", "bedrock")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER")
}

func TestValidateRejectsBadMaxTokens(t *testing.T) {
	cfg := &Config{
		Provider:         ProviderAnthropic,
		AnthropicBaseURL: "https://api.anthropic.com",
		ModelID:          "claude-sonnet-4-20250514",
		MaxTokens:        0,
	}
	assert.Error(t, cfg.Validate())
}

func TestNonNumericMaxTokensFallsBack(t *testing.T) {
	t.Setenv("MAX_TOKENS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.MaxTokens)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 8, cfg.LLMTimeoutSec)
	assert.Equal(t, 6000, cfg.MaxContextChars)
	assert.Equal(t, 3, cfg.BreakerFailureThreshold)
	assert.Equal(t, "zara-kb", cfg.OpenSearchIndex)
}

func TestValidateClampsLLMTimeout(t *testing.T) {
	t.Setenv("ZARA_LLM_TIMEOUT_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.LLMTimeoutSec)

	t.Setenv("ZARA_LLM_TIMEOUT_SECONDS", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.LLMTimeoutSec)
}

func TestValidateRejectsBadEndpointScheme(t *testing.T) {
	t.Setenv("OPENSEARCH_ENDPOINT", "ftp://search.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}

func TestValidateRequiresChannelWithSlackToken(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SUPPORT_CHANNEL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestHasOpenAIKey(t *testing.T) {
	cfg := &Config{}
	assert.False(t, HasOpenAIKey(cfg))

	cfg.OpenAIAPIKey = "  "
	assert.False(t, HasOpenAIKey(cfg))

	cfg.OpenAIAPIKey = "sk-test"
	assert.True(t, HasOpenAIKey(cfg))
}

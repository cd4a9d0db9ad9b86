package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.APIURL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/finassist.db", cfg.DB.Path)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 20, cfg.Conversation.MaxMessages)
	assert.Equal(t, 30, cfg.Conversation.TimeoutMinutes)
	assert.Equal(t, "0 6 1 * *", cfg.Recurring.CronExpr)
	assert.True(t, cfg.Recurring.Enabled)
	assert.Empty(t, cfg.Search.APIKey)
	assert.Equal(t, "https://api.tavily.com/search", cfg.Search.APIURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("CONVERSATION_MAX_MESSAGES", "10")
	t.Setenv("RECURRING_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 10, cfg.Conversation.MaxMessages)
	assert.False(t, cfg.Recurring.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewFromEnvRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestNewFromEnvRejectsBadBounds(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("AGENT_MAX_ITERATIONS", "0")

	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestOptionsApplyLast(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Server.Addr = ":9999"
	})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

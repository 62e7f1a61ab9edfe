package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg := FromLookup(lookupFrom(nil))

	assert.Equal(t, DefaultBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultEmbeddingModel, cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "memory", cfg.Checkpoint.Kind)
	assert.Equal(t, "sqlite3", cfg.Database.Dialect)
	assert.Equal(t, DefaultThreadID, cfg.ThreadID)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.OpenAI.ChatCompletionsURL())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg := FromLookup(lookupFrom(map[string]string{
		"OPENAI_API_KEY":     "sk-test",
		"OPENAI_BASE_URL":    "http://localhost:8080/v1/",
		"OPENAI_MODEL":       "qwen-plus",
		"OPENAI_TEMPERATURE": "0.7",
		"GITLAB_API_URL":     "https://git.example.com",
		"CHECKPOINT_STORE":   "redis",
		"REDIS_ADDR":         "127.0.0.1:6379",
	}))

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", cfg.OpenAI.APIBase())
	assert.Equal(t, "qwen-plus", cfg.OpenAI.Model)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, "https://git.example.com", cfg.GitLab.BaseURL)
	assert.Equal(t, "redis", cfg.Checkpoint.Kind)
	assert.Equal(t, "127.0.0.1:6379", cfg.Checkpoint.DSN)
}

func TestOpenAI_APIBasePrefersEnvOrder(t *testing.T) {
	cfg := FromLookup(lookupFrom(map[string]string{
		"OPENAI_API_BASE": "http://primary",
		"OPENAI_BASE_URL": "http://secondary",
	}))
	assert.Equal(t, "http://primary/v1", cfg.OpenAI.APIBase())
}

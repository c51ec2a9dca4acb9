package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(providerEnv, "")
	t.Setenv(anthropicKeyEnv, "from-env")
	t.Setenv(componentsURLEnv, "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 70, cfg.Quality.Threshold)
	assert.Equal(t, 3, cfg.Quality.MaxAttempts)
	assert.True(t, cfg.Quality.Strict)
	assert.True(t, cfg.Enhancer.Enabled)
	assert.Equal(t, "local", cfg.Collab.Notifier)
	assert.Empty(t, cfg.Components.BaseURL)
	assert.Equal(t, 100, cfg.Components.PageSize)
}

func TestLoadComponentsURLFromEnv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(providerEnv, "")
	t.Setenv(componentsURLEnv, "https://catalog.internal/api")

	cfg := Load()
	assert.Equal(t, "https://catalog.internal/api", cfg.Components.BaseURL)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siteforge.yaml")
	content := `server:
  addr: ":9090"
llm:
  provider: openai
  expensiveModel: gpt-big
  timeout: 30s
storage:
  driver: jetstream
  bucket: drafts
quality:
  threshold: 80
  strict: false
enhancer:
  enabled: false
janitor:
  ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(providerEnv, "")
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(listenAddrEnv, ":7070")
	t.Setenv(natsURLEnv, "nats://broker:4222")
	t.Setenv(componentsURLEnv, "")

	cfg := Load()
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-big", cfg.LLM.ExpensiveModel)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.CheapModel)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "jetstream", cfg.Storage.Driver)
	assert.Equal(t, "drafts", cfg.Storage.Bucket)
	assert.Equal(t, "nats://broker:4222", cfg.Storage.NATSURL)
	assert.Equal(t, 80, cfg.Quality.Threshold)
	assert.Equal(t, 3, cfg.Quality.MaxAttempts)
	assert.False(t, cfg.Quality.Strict)
	assert.False(t, cfg.Enhancer.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Janitor.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Janitor.Interval)
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(providerEnv, "")

	cfg := Load()
	assert.Equal(t, defaultConfig().Server.Addr, cfg.Server.Addr)
}

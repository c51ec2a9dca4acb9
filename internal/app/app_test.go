package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteForge/internal/config"
	"SiteForge/internal/logging"
	"SiteForge/internal/usecase"
)

func testConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Addr: "127.0.0.1:0"},
		LLM:     config.LLMConfig{Provider: "anthropic", APIKey: "test"},
		Storage: config.StorageConfig{Driver: "memory"},
		Quality: config.QualityConfig{Threshold: 70, MaxAttempts: 1, Strict: true},
		Collab:  config.CollabConfig{Notifier: "local"},
	}
}

func TestNewAndServe(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.Synthesizer())
	assert.Contains(t, a.Templates().Names(), "Homepage")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*config.Config){
		"storage":                   func(c *config.Config) { c.Storage.Driver = "floppy" },
		"notifier":                  func(c *config.Config) { c.Collab.Notifier = "pigeon" },
		"http notifier without url": func(c *config.Config) { c.Collab.Notifier = "http" },
		"provider":                  func(c *config.Config) { c.LLM.Provider = "oracle" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			mutate(&cfg)
			_, err := New(context.Background(), cfg, logging.Discard())
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Templates.File = "does-not-exist.yaml"
	_, err := LoadTemplates(cfg)
	assert.Error(t, err)
}

func TestDefaultConfigSynthesizesWithoutCatalog(t *testing.T) {
	t.Setenv("SITEFORGE_CONFIG", "")
	t.Setenv("SITEFORGE_LLM_PROVIDER", "")
	t.Setenv("SITEFORGE_COMPONENTS_URL", "")

	var calls atomic.Int32
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request to %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stop_reason": "end_turn",
			"content": []map[string]string{{
				"type": "text",
				"text": `<section><h2>Acme Plumbing</h2><a class="cta" href="#contact">Call us</a></section>`,
			}},
		})
	}))
	defer llmServer.Close()

	cfg := config.Load()
	require.Empty(t, cfg.Components.BaseURL)
	cfg.Storage.Driver = "memory"
	cfg.LLM.APIKey = "test"
	cfg.LLM.Endpoint = llmServer.URL

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := a.Synthesizer().Synthesize(ctx, usecase.SynthesisRequest{
		Site:         "acme",
		PageName:     "home",
		Template:     "Homepage",
		BusinessName: "Acme Plumbing",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme/draft/home.html", res.Key)
	assert.EqualValues(t, 6, calls.Load())
}

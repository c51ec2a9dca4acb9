package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteForge/internal/config"
	"SiteForge/internal/domain"
	"SiteForge/internal/logging"
	"SiteForge/internal/ports"
)

var testTool = ports.ToolSpec{
	Name:        "submit",
	Description: "submit a page",
	InputSchema: map[string]any{"type": "object"},
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		CheapModel:     "small",
		ExpensiveModel: "large",
		Timeout:        2 * time.Second,
		SectionTokens:  512,
	}
}

func userRequest(tier ports.Tier) ports.TextRequest {
	return ports.TextRequest{Tier: tier, System: "be brief", Messages: []ports.Message{{Role: "user", Content: "write"}}}
}

func TestAnthropicGenerate(t *testing.T) {
	t.Parallel()

	reqs := make(chan anthropicRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		reqs <- req
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"<section>hi</section>"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
	out, err := client.Generate(context.Background(), userRequest(ports.TierExpensive))
	require.NoError(t, err)
	assert.Equal(t, "<section>hi</section>", out)

	req := <-reqs
	assert.Equal(t, "large", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	assert.Equal(t, "be brief", req.System)
	assert.Nil(t, req.ToolChoice)
}

func TestAnthropicStructured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "small", req.Model)
		require.NotNil(t, req.ToolChoice)
		assert.Equal(t, "submit", req.ToolChoice.Name)
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use","name":"submit","input":{"html":"<html></html>"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
	payload, err := client.GenerateStructured(context.Background(), userRequest(ports.TierCheap), testTool)
	require.NoError(t, err)
	assert.JSONEq(t, `{"html":"<html></html>"}`, string(payload))
}

func TestOpenAIStructured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "submit", req.Tools[0].Function.Name)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"tool_calls":[{"function":{"name":"submit","arguments":"{\"ok\":true}"}}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(NewOpenAIProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
	payload, err := client.GenerateStructured(context.Background(), userRequest(ports.TierCheap), testTool)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	t.Run("upstream status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
		_, err := client.Generate(context.Background(), userRequest(ports.TierCheap))
		var upstream *domain.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
		assert.Equal(t, domain.CodeUpstream, domain.CodeOf(err))
	})

	t.Run("missing tool call", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"I refuse"}]}`))
		}))
		defer srv.Close()

		client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
		_, err := client.GenerateStructured(context.Background(), userRequest(ports.TierCheap), testTool)
		assert.Equal(t, domain.CodeMalformedPayload, domain.CodeOf(err))
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}))
		defer srv.Close()

		client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), testLLMConfig(), logging.Discard(), nil)
		_, err := client.Generate(context.Background(), userRequest(ports.TierCheap))
		assert.Equal(t, domain.CodeMalformedPayload, domain.CodeOf(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		cfg := testLLMConfig()
		cfg.Timeout = 50 * time.Millisecond
		client := NewClient(NewAnthropicProvider(srv.URL, "key", srv.Client()), cfg, logging.Discard(), nil)
		_, err := client.Generate(context.Background(), userRequest(ports.TierCheap))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, domain.CodeUpstream, domain.CodeOf(err))
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		client := NewClient(NewAnthropicProvider("", "", nil), testLLMConfig(), logging.Discard(), nil)
		_, err := client.Generate(context.Background(), userRequest(ports.TierCheap))
		assert.Error(t, err)
	})
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: "mystery"})
	assert.Error(t, err)
}

func TestBuildGeminiRequest(t *testing.T) {
	t.Parallel()

	contents, cfg := buildGeminiRequest(Call{
		Model:     "gemini-flash",
		System:    "be brief",
		MaxTokens: 100,
		Messages: []ports.Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
		},
		Tool: &testTool,
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "model", contents[1].Role)
	assert.EqualValues(t, 100, cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, "submit", cfg.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, []string{"submit"}, cfg.ToolConfig.FunctionCallingConfig.AllowedFunctionNames)
}

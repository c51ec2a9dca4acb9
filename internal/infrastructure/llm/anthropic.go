package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SiteForge/internal/domain"
)

const (
	anthropicVersion = "2023-06-01"
	anthropicBaseURL = "https://api.anthropic.com"
)

// AnthropicProvider talks to the Anthropic messages API.
type AnthropicProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds a provider; baseURL defaults to the public API.
func NewAnthropicProvider(baseURL, apiKey string, client *http.Client) *AnthropicProvider {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Minute}
	}
	return &AnthropicProvider{
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/v1/messages",
		apiKey:     apiKey,
		httpClient: client,
	}
}

// Name identifies the provider in logs and errors.
func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicRequest struct {
	Model      string               `json:"model"`
	MaxTokens  int                  `json:"max_tokens"`
	System     string               `json:"system,omitempty"`
	Messages   []anthropicMessage   `json:"messages"`
	Tools      []anthropicTool      `json:"tools,omitempty"`
	ToolChoice *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func buildAnthropicRequest(call Call) anthropicRequest {
	req := anthropicRequest{
		Model:     call.Model,
		MaxTokens: call.MaxTokens,
		System:    call.System,
	}
	for _, m := range call.Messages {
		if m.Role == "system" {
			req.System = strings.TrimSpace(req.System + "\n\n" + m.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	if call.Tool != nil {
		req.Tools = []anthropicTool{{
			Name:        call.Tool.Name,
			Description: call.Tool.Description,
			InputSchema: call.Tool.InputSchema,
		}}
		req.ToolChoice = &anthropicToolChoice{Type: "tool", Name: call.Tool.Name}
	}
	return req
}

// Complete sends one messages request.
func (a *AnthropicProvider) Complete(ctx context.Context, call Call) (Completion, error) {
	if a.apiKey == "" {
		return Completion{}, fmt.Errorf("anthropic provider misconfigured: missing api key")
	}

	var resp anthropicResponse
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, a.httpClient, a.Name(), a.endpoint, headers, buildAnthropicRequest(call), &resp); err != nil {
		return Completion{}, err
	}

	var out Completion
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			if call.Tool != nil && block.Name == call.Tool.Name {
				out.Payload = block.Input
			}
		}
	}

	if call.Tool != nil && len(out.Payload) == 0 {
		return Completion{}, &domain.MalformedPayloadError{Reason: fmt.Sprintf("no %s tool_use block (stop_reason=%s)", call.Tool.Name, resp.StopReason)}
	}
	return out, nil
}

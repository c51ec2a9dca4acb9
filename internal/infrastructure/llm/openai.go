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

// OpenAIProvider implements Provider backed by OpenAI-compatible chat completion APIs.
type OpenAIProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider for the chat completions endpoint.
func NewOpenAIProvider(endpoint, apiKey string, client *http.Client) *OpenAIProvider {
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Minute}
	}
	return &OpenAIProvider{endpoint: endpoint, apiKey: apiKey, httpClient: client}
}

// Name identifies the provider in logs and errors.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIRequest struct {
	Model      string          `json:"model"`
	MaxTokens  int             `json:"max_tokens,omitempty"`
	Messages   []openAIMessage `json:"messages"`
	Tools      []openAITool    `json:"tools,omitempty"`
	ToolChoice any             `json:"tool_choice,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func buildOpenAIRequest(call Call) openAIRequest {
	req := openAIRequest{Model: call.Model, MaxTokens: call.MaxTokens}
	if sys := strings.TrimSpace(call.System); sys != "" {
		req.Messages = append(req.Messages, openAIMessage{Role: "system", Content: sys})
	}
	for _, m := range call.Messages {
		req.Messages = append(req.Messages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	if call.Tool != nil {
		req.Tools = []openAITool{{
			Type: "function",
			Function: openAIFunction{
				Name:        call.Tool.Name,
				Description: call.Tool.Description,
				Parameters:  call.Tool.InputSchema,
			},
		}}
		req.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": call.Tool.Name},
		}
	}
	return req
}

// Complete posts one chat completion request.
func (o *OpenAIProvider) Complete(ctx context.Context, call Call) (Completion, error) {
	if o.apiKey == "" || o.endpoint == "" {
		return Completion{}, fmt.Errorf("openai provider misconfigured")
	}

	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.httpClient, o.Name(), o.endpoint, headers, buildOpenAIRequest(call), &resp); err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &domain.MalformedPayloadError{Reason: "openai response has no choices"}
	}

	msg := resp.Choices[0].Message
	out := Completion{Text: msg.Content}
	if call.Tool != nil {
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name == call.Tool.Name && json.Valid([]byte(tc.Function.Arguments)) {
				out.Payload = json.RawMessage(tc.Function.Arguments)
				break
			}
		}
		if len(out.Payload) == 0 {
			return Completion{}, &domain.MalformedPayloadError{Reason: fmt.Sprintf("no %s tool call in response", call.Tool.Name)}
		}
	}
	return out, nil
}

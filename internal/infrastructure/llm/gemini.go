package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"SiteForge/internal/domain"
)

// GeminiProvider implements Provider using the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates the genai client.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name identifies the provider in logs and errors.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

func buildGeminiRequest(call Call) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(call.Messages))
	for _, m := range call.Messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(call.MaxTokens),
	}
	if call.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(call.System, genai.RoleUser)
	}
	if call.Tool != nil {
		cfg.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:                 call.Tool.Name,
				Description:          call.Tool.Description,
				ParametersJsonSchema: call.Tool.InputSchema,
			}},
		}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{call.Tool.Name},
			},
		}
	}
	return contents, cfg
}

// Complete runs one GenerateContent call.
func (g *GeminiProvider) Complete(ctx context.Context, call Call) (Completion, error) {
	contents, cfg := buildGeminiRequest(call)

	resp, err := g.client.Models.GenerateContent(ctx, call.Model, contents, cfg)
	if err != nil {
		upstream := &domain.UpstreamError{Service: g.Name(), Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			upstream.StatusCode = apiErr.Code
		}
		return Completion{}, upstream
	}

	if call.Tool == nil {
		return Completion{Text: resp.Text()}, nil
	}

	for _, fc := range resp.FunctionCalls() {
		if fc.Name != call.Tool.Name {
			continue
		}
		payload, err := json.Marshal(fc.Args)
		if err != nil {
			return Completion{}, &domain.MalformedPayloadError{Reason: "encode gemini function args", Err: err}
		}
		return Completion{Payload: payload}, nil
	}
	return Completion{}, &domain.MalformedPayloadError{Reason: fmt.Sprintf("no %s function call in response", call.Tool.Name)}
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"SiteForge/internal/config"
)

// NewProvider selects the provider named in configuration.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		return NewAnthropicProvider(cfg.Endpoint, cfg.APIKey, nil), nil
	case "openai":
		return NewOpenAIProvider(cfg.Endpoint, cfg.APIKey, nil), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

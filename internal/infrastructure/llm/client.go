package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"SiteForge/internal/config"
	"SiteForge/internal/domain"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
)

// Call is the provider-neutral shape of one request.
type Call struct {
	Model     string
	System    string
	MaxTokens int
	Messages  []ports.Message
	Tool      *ports.ToolSpec
}

// Completion is what a provider returns: text, or the forced tool payload.
type Completion struct {
	Text    string
	Payload json.RawMessage
}

// Provider adapts one vendor API.
type Provider interface {
	Name() string
	Complete(ctx context.Context, call Call) (Completion, error)
}

// Client implements ports.TextGenerator over a provider with tiered models.
// It never retries: a failed or timed-out call is reported to the caller,
// whose quality loop owns the retry budget.
type Client struct {
	provider  Provider
	models    map[ports.Tier]string
	timeout   time.Duration
	maxTokens int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

var _ ports.TextGenerator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(provider Provider, cfg config.LLMConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	maxTokens := cfg.SectionTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		models: map[ports.Tier]string{
			ports.TierCheap:     cfg.CheapModel,
			ports.TierExpensive: cfg.ExpensiveModel,
		},
		timeout:   timeout,
		maxTokens: maxTokens,
		logger:    logger,
		metrics:   m,
	}
}

// Generate returns the raw text of a completion.
func (c *Client) Generate(ctx context.Context, req ports.TextRequest) (string, error) {
	out, err := c.complete(ctx, req, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", &domain.MalformedPayloadError{Reason: "empty completion"}
	}
	return out.Text, nil
}

// GenerateStructured forces the model to answer through the given tool and
// returns its input payload.
func (c *Client) GenerateStructured(ctx context.Context, req ports.TextRequest, tool ports.ToolSpec) (json.RawMessage, error) {
	out, err := c.complete(ctx, req, &tool)
	if err != nil {
		return nil, err
	}
	if len(out.Payload) == 0 || !json.Valid(out.Payload) {
		return nil, &domain.MalformedPayloadError{Reason: fmt.Sprintf("tool %s returned no usable payload", tool.Name)}
	}
	return out.Payload, nil
}

func (c *Client) complete(ctx context.Context, req ports.TextRequest, tool *ports.ToolSpec) (Completion, error) {
	if c == nil || c.provider == nil {
		return Completion{}, fmt.Errorf("llm client is not configured")
	}
	if len(req.Messages) == 0 {
		return Completion{}, fmt.Errorf("at least one message is required")
	}

	tier := req.Tier
	if tier == "" {
		tier = ports.TierCheap
	}
	model := c.models[tier]
	if model == "" {
		return Completion{}, fmt.Errorf("no model configured for tier %s", tier)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	out, err := c.provider.Complete(callCtx, Call{
		Model:     model,
		System:    req.System,
		MaxTokens: maxTokens,
		Messages:  req.Messages,
		Tool:      tool,
	})
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &domain.UpstreamError{Service: c.provider.Name(), Err: fmt.Errorf("timed out after %s: %w", c.timeout, context.DeadlineExceeded)}
		}
		c.metrics.LLMCall(string(tier), "error", elapsed)
		c.logger.Warn("llm call failed", "provider", c.provider.Name(), "model", model, "tier", tier, "elapsed", elapsed, "error", err)
		return Completion{}, err
	}

	c.metrics.LLMCall(string(tier), "ok", elapsed)
	c.logger.Debug("llm call done", "provider", c.provider.Name(), "model", model, "tier", tier, "elapsed", elapsed)
	return out, nil
}

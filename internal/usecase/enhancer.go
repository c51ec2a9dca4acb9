package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"SiteForge/internal/domain"
	"SiteForge/internal/htmlkit"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
	"SiteForge/internal/schemaorg"
)

const enhanceSystemPrompt = `You are a technical SEO editor. You receive the full HTML of a published web page.
Clean up the markup without changing the visible design: fix heading order, add missing alt text, improve semantic tags and ARIA labels.
Do not add or edit <script type="application/ld+json"> blocks; structured data is generated separately.
Extract the business facts stated on the page. Never invent facts that are not on the page.
Answer only by calling the submit_enhanced_page tool.`

// EnhanceTool is the structured interface the model must answer through.
var EnhanceTool = ports.ToolSpec{
	Name:        "submit_enhanced_page",
	Description: "Submit the cleaned-up page together with the business facts found on it.",
	InputSchema: map[string]any{
		"type":     "object",
		"required": []string{"html", "businessType", "facts", "changes"},
		"properties": map[string]any{
			"html":         map[string]any{"type": "string", "description": "The complete enhanced HTML document, starting with <!DOCTYPE html>."},
			"businessType": map[string]any{"type": "string", "description": "Kind of business, e.g. restaurant, dentist, plumber, saas."},
			"title":        map[string]any{"type": "string", "description": "Improved page title, at most 60 characters."},
			"description":  map[string]any{"type": "string", "description": "Improved meta description, at most 160 characters."},
			"changes":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"facts": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":         map[string]any{"type": "string"},
					"description":  map[string]any{"type": "string"},
					"telephone":    map[string]any{"type": "string"},
					"email":        map[string]any{"type": "string"},
					"url":          map[string]any{"type": "string"},
					"logo":         map[string]any{"type": "string"},
					"image":        map[string]any{"type": "string"},
					"priceRange":   map[string]any{"type": "string"},
					"openingHours": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"sameAs":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"services":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"address": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"street":     map[string]any{"type": "string"},
							"locality":   map[string]any{"type": "string"},
							"region":     map[string]any{"type": "string"},
							"postalCode": map[string]any{"type": "string"},
							"country":    map[string]any{"type": "string"},
						},
					},
					"geo": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"latitude":  map[string]any{"type": "number"},
							"longitude": map[string]any{"type": "number"},
						},
					},
					"faq": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []string{"question", "answer"},
							"properties": map[string]any{
								"question": map[string]any{"type": "string"},
								"answer":   map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
}

type enhancePayload struct {
	HTML         string                  `json:"html"`
	BusinessType string                  `json:"businessType"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Changes      []string                `json:"changes"`
	Facts        schemaorg.BusinessFacts `json:"facts"`
}

// Enhancement is the outcome of one enhancer run.
type Enhancement struct {
	HTML       string
	Enhanced   bool
	SchemaType string
	Changes    []string
}

// EnhancerDeps wires the save-time enhancer.
type EnhancerDeps struct {
	Generator ports.TextGenerator
	MaxTokens int
	Enabled   bool
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Enhancer cleans up author-edited HTML and regenerates its structured data.
type Enhancer struct {
	generator ports.TextGenerator
	maxTokens int
	enabled   bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewEnhancer constructs the enhancer.
func NewEnhancer(deps EnhancerDeps) *Enhancer {
	e := &Enhancer{
		generator: deps.Generator,
		maxTokens: deps.MaxTokens,
		enabled:   deps.Enabled,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 16000
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Enhance never fails: any problem with the model call or its payload falls
// back to the marker-stripped input with Enhanced=false.
func (e *Enhancer) Enhance(ctx context.Context, raw string) Enhancement {
	stripped := stripMarkers(raw)
	fallback := Enhancement{HTML: stripped, Changes: []string{}}

	if !e.enabled || e.generator == nil {
		e.metrics.Enhancement(false)
		return fallback
	}

	out, err := e.generator.GenerateStructured(ctx, ports.TextRequest{
		Tier:      ports.TierCheap,
		System:    enhanceSystemPrompt,
		MaxTokens: e.maxTokens,
		Messages:  []ports.Message{{Role: "user", Content: stripped}},
	}, EnhanceTool)
	if err != nil {
		e.logger.Warn("enhancement call failed", "code", domain.CodeOf(err), "error", err)
		e.metrics.Enhancement(false)
		return fallback
	}

	enhanced, err := e.apply(out)
	if err != nil {
		e.logger.Warn("enhancement payload rejected", "error", err)
		e.metrics.Enhancement(false)
		return fallback
	}
	e.metrics.Enhancement(true)
	return enhanced
}

func (e *Enhancer) apply(raw json.RawMessage) (Enhancement, error) {
	var payload enhancePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Enhancement{}, &domain.MalformedPayloadError{Reason: "decode enhancement", Err: err}
	}
	page := htmlkit.CleanModelOutput(payload.HTML)
	if !htmlkit.HasRootMarker(page) {
		return Enhancement{}, &domain.MalformedPayloadError{Reason: "enhanced html has no document root"}
	}

	doc, err := htmlkit.Parse(page)
	if err != nil {
		return Enhancement{}, err
	}
	htmlkit.StripEditorMarkers(doc)

	blocks, schemaType, err := schemaorg.Build(payload.BusinessType, payload.Facts)
	if err != nil {
		return Enhancement{}, err
	}
	htmlkit.ReplaceJSONLD(doc, blocks)
	htmlkit.LazyLoadImages(doc)
	if t := strings.TrimSpace(payload.Title); t != "" {
		htmlkit.SetTitle(doc, t)
	}
	if d := strings.TrimSpace(payload.Description); d != "" {
		htmlkit.SetMetaDescription(doc, d)
	}

	rendered, err := htmlkit.Render(doc)
	if err != nil {
		return Enhancement{}, err
	}
	changes := payload.Changes
	if changes == nil {
		changes = []string{}
	}
	return Enhancement{HTML: rendered, Enhanced: true, SchemaType: schemaType, Changes: changes}, nil
}

// stripMarkers removes editor instrumentation. Input that does not parse is
// returned as is.
func stripMarkers(raw string) string {
	doc, err := htmlkit.Parse(raw)
	if err != nil {
		return raw
	}
	htmlkit.StripEditorMarkers(doc)
	out, err := htmlkit.Render(doc)
	if err != nil {
		return raw
	}
	return out
}

package ports

import (
	"context"
	"encoding/json"
	"time"

	"SiteForge/internal/domain"
)

// ComponentCatalog lists reusable section snippets from the content service.
type ComponentCatalog interface {
	ListComponents(ctx context.Context) ([]domain.ReusableComponent, error)
}

// Tier selects the model class used for a generation call.
type Tier string

const (
	// TierCheap is used for adapting existing sections.
	TierCheap Tier = "cheap"
	// TierExpensive is used for writing sections from scratch.
	TierExpensive Tier = "expensive"
)

// Message is one turn of a generation request.
type Message struct {
	Role    string
	Content string
}

// TextRequest carries a single generative call.
type TextRequest struct {
	Tier      Tier
	System    string
	MaxTokens int
	Messages  []Message
}

// ToolSpec forces the model to answer with one payload matching InputSchema.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// TextGenerator talks to the external large-language-model service.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
	GenerateStructured(ctx context.Context, req TextRequest, tool ToolSpec) (json.RawMessage, error)
}

// ArtifactStore is the key-addressed blob store holding page HTML.
type ArtifactStore interface {
	Get(ctx context.Context, key string) (domain.PageArtifact, error)
	Head(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, body []byte, contentType string, opts domain.PutOptions) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]domain.ArtifactInfo, error)
}

// Scorer grades an assembled document against its template. The site is
// passed along for scorers that need to publish a copy somewhere.
type Scorer interface {
	Score(ctx context.Context, site, document string, tmpl domain.TemplateDefinition) (domain.QualityVerdict, error)
}

// SaveNotifier tells collaboration rooms that a page was written by someone else.
type SaveNotifier interface {
	NotifySaved(ctx context.Context, site, page, versionTag string) error
}

// Auditor scores a publicly reachable copy of a page.
type Auditor interface {
	Audit(ctx context.Context, publicURL string) (domain.QualityVerdict, error)
}

// Scheduler controls when periodic jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

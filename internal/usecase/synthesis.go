package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"SiteForge/internal/domain"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
	"SiteForge/internal/templates"
)

// SynthesisRequest asks for one new page.
type SynthesisRequest struct {
	Site         string
	PageName     string
	Template     string
	BusinessName string
	BrandContext string
	Industry     string
}

// SynthesisResult describes a stored page.
type SynthesisResult struct {
	PageName   string `json:"pageName"`
	Key        string `json:"key"`
	Score      int    `json:"score"`
	VersionTag string `json:"versionTag"`
	Attempts   int    `json:"attempts"`
}

// SynthesizerDeps wires the synthesis use case.
type SynthesizerDeps struct {
	Templates *templates.Registry
	Catalog   ports.ComponentCatalog
	Store     ports.ArtifactStore
	Gate      *Gate
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Synthesizer builds pages from templates and stores them as drafts.
type Synthesizer struct {
	templates *templates.Registry
	catalog   ports.ComponentCatalog
	store     ports.ArtifactStore
	gate      *Gate
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewSynthesizer constructs the use case.
func NewSynthesizer(deps SynthesizerDeps) *Synthesizer {
	s := &Synthesizer{
		templates: deps.Templates,
		catalog:   deps.Catalog,
		store:     deps.Store,
		gate:      deps.Gate,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Synthesize builds one page. The page is written only after it passes the
// quality gate, and never over an existing page.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error) {
	if err := ValidateName("site", req.Site); err != nil {
		return SynthesisResult{}, err
	}
	if err := ValidateName("pageName", req.PageName); err != nil {
		return SynthesisResult{}, err
	}
	tmpl, err := s.templates.Resolve(req.Template)
	if err != nil {
		return SynthesisResult{}, err
	}
	profile, err := s.industry(req.Industry)
	if err != nil {
		return SynthesisResult{}, err
	}
	if err := s.ensureAbsent(ctx, req.Site, req.PageName); err != nil {
		return SynthesisResult{}, err
	}

	idx, err := s.index(ctx)
	if err != nil {
		return SynthesisResult{}, err
	}

	brand := domain.NewBrandContext(req.Site, req.PageName, req.BusinessName, profile, req.BrandContext)
	return s.synthesize(ctx, tmpl, brand, idx)
}

func (s *Synthesizer) synthesize(ctx context.Context, tmpl domain.TemplateDefinition, brand domain.BrandContext, idx domain.ComponentIndex) (SynthesisResult, error) {
	result, err := s.gate.Run(ctx, tmpl, brand, idx)
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("synthesize %s/%s: %w", brand.Site, brand.PageName, err)
	}

	key := domain.ArtifactKey(brand.Site, domain.EnvDraft, brand.PageName)
	tag, err := s.store.Put(ctx, key, []byte(result.Document), domain.HTMLContentType, domain.PutOptions{IfNoneMatch: true})
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("store %s: %w", key, err)
	}

	s.logger.Info("page synthesized", "key", key, "template", tmpl.Name, "score", result.Verdict.Score, "attempts", result.Attempts)
	return SynthesisResult{
		PageName:   brand.PageName,
		Key:        key,
		Score:      result.Verdict.Score,
		VersionTag: tag,
		Attempts:   result.Attempts,
	}, nil
}

func (s *Synthesizer) ensureAbsent(ctx context.Context, site, page string) error {
	key := domain.ArtifactKey(site, domain.EnvDraft, page)
	_, err := s.store.Head(ctx, key)
	switch {
	case err == nil:
		return fmt.Errorf("synthesize %s: %w", key, domain.ErrPageExists)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("head %s: %w", key, err)
	}
}

// index fetches the catalog once per request.
func (s *Synthesizer) index(ctx context.Context) (domain.ComponentIndex, error) {
	if s.catalog == nil {
		return domain.NewComponentIndex(nil), nil
	}
	components, err := s.catalog.ListComponents(ctx)
	if err != nil {
		return domain.ComponentIndex{}, fmt.Errorf("list components: %w", err)
	}
	return domain.NewComponentIndex(components), nil
}

func (s *Synthesizer) industry(name string) (*domain.IndustryProfile, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	profile := s.templates.Industry(name)
	if profile == nil {
		return nil, &domain.ValidationError{Field: "industry", Reason: fmt.Sprintf("unknown industry %q", name)}
	}
	return profile, nil
}

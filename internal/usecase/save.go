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
)

// SaveRequest carries author-edited HTML.
type SaveRequest struct {
	Site               string
	Page               string
	HTML               string
	ExpectedVersionTag string
}

// SaveResult is a stored, enhanced revision.
type SaveResult struct {
	Key        string
	VersionTag string
	Enhancement
}

// PagesDeps wires the page save and fetch use cases.
type PagesDeps struct {
	Store    ports.ArtifactStore
	Enhancer *Enhancer
	Notifier ports.SaveNotifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Pages saves and serves draft pages.
type Pages struct {
	store    ports.ArtifactStore
	enhancer *Enhancer
	notifier ports.SaveNotifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPages constructs the use case.
func NewPages(deps PagesDeps) *Pages {
	p := &Pages{
		store:    deps.Store,
		enhancer: deps.Enhancer,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Save enhances and stores a draft. A stale ExpectedVersionTag is rejected
// before the model is called; the store re-checks it atomically on write.
// Conflicts are returned to the caller and never retried here.
func (p *Pages) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if err := ValidateName("site", req.Site); err != nil {
		return SaveResult{}, err
	}
	if err := ValidateName("page", req.Page); err != nil {
		return SaveResult{}, err
	}
	if strings.TrimSpace(req.HTML) == "" {
		return SaveResult{}, &domain.ValidationError{Field: "html", Reason: "is required"}
	}

	key := domain.ArtifactKey(req.Site, domain.EnvDraft, req.Page)
	if req.ExpectedVersionTag != "" {
		if err := p.checkTag(ctx, key, req.ExpectedVersionTag); err != nil {
			p.metrics.Save(string(domain.CodeOf(err)))
			return SaveResult{}, err
		}
	}

	var enhancement Enhancement
	if p.enhancer != nil {
		enhancement = p.enhancer.Enhance(ctx, req.HTML)
	} else {
		enhancement = Enhancement{HTML: stripMarkers(req.HTML), Changes: []string{}}
	}

	tag, err := p.store.Put(ctx, key, []byte(enhancement.HTML), domain.HTMLContentType, domain.PutOptions{IfMatch: req.ExpectedVersionTag})
	if err != nil {
		p.metrics.Save(string(domain.CodeOf(err)))
		return SaveResult{}, fmt.Errorf("store %s: %w", key, err)
	}
	p.metrics.Save("ok")

	if p.notifier != nil {
		if err := p.notifier.NotifySaved(ctx, req.Site, req.Page, tag); err != nil {
			p.logger.Warn("remote-save notification failed", "key", key, "error", err)
		}
	}

	p.logger.Info("page saved", "key", key, "versionTag", tag, "enhanced", enhancement.Enhanced, "schemaType", enhancement.SchemaType)
	return SaveResult{Key: key, VersionTag: tag, Enhancement: enhancement}, nil
}

func (p *Pages) checkTag(ctx context.Context, key, expected string) error {
	current, err := p.store.Head(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		current = ""
	case err != nil:
		return fmt.Errorf("head %s: %w", key, err)
	}
	if current != expected {
		return &domain.ConflictError{Key: key, ExpectedTag: expected, ServerVersionTag: current}
	}
	return nil
}

// Fetch returns the stored page for one environment.
func (p *Pages) Fetch(ctx context.Context, site, env, page string) (domain.PageArtifact, error) {
	if err := ValidateName("site", site); err != nil {
		return domain.PageArtifact{}, err
	}
	if err := requireEnv(env); err != nil {
		return domain.PageArtifact{}, err
	}
	if err := ValidateName("page", strings.TrimSuffix(page, ".html")); err != nil {
		return domain.PageArtifact{}, err
	}
	key := domain.ArtifactKey(site, env, page)
	art, err := p.store.Get(ctx, key)
	if err != nil {
		return domain.PageArtifact{}, fmt.Errorf("get %s: %w", key, err)
	}
	return art, nil
}

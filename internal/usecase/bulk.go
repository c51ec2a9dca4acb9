package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"SiteForge/internal/domain"
)

const bulkPageConcurrency = 3

// BulkPage is one page of a site-create request.
type BulkPage struct {
	PageName string
	Template string
}

// BulkRequest creates several pages sharing one brand context.
type BulkRequest struct {
	Site         string
	BusinessName string
	BrandContext string
	Industry     string
	Pages        []BulkPage
}

// PageFailure is a page that could not be created.
type PageFailure struct {
	PageName string
	Err      error
}

// BulkResult lists created and failed pages in request order.
type BulkResult struct {
	Created []SynthesisResult
	Failed  []PageFailure
}

// CreateSite synthesizes every page independently: a page that fails does
// not cancel or block its siblings. Only request-level problems (validation,
// catalog fetch) fail the whole call.
func (s *Synthesizer) CreateSite(ctx context.Context, req BulkRequest) (BulkResult, error) {
	if err := ValidateName("site", req.Site); err != nil {
		return BulkResult{}, err
	}
	if len(req.Pages) == 0 {
		return BulkResult{}, &domain.ValidationError{Field: "pages", Reason: "must list at least one page"}
	}
	seen := map[string]bool{}
	for _, p := range req.Pages {
		if err := ValidateName("pages.pageName", p.PageName); err != nil {
			return BulkResult{}, err
		}
		if seen[p.PageName] {
			return BulkResult{}, &domain.ValidationError{Field: "pages.pageName", Reason: "duplicate page " + p.PageName}
		}
		seen[p.PageName] = true
	}
	profile, err := s.industry(req.Industry)
	if err != nil {
		return BulkResult{}, err
	}

	idx, err := s.index(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	created := make([]*SynthesisResult, len(req.Pages))
	failed := make([]error, len(req.Pages))

	var g errgroup.Group
	g.SetLimit(bulkPageConcurrency)
	for i, page := range req.Pages {
		g.Go(func() error {
			res, err := s.createPage(ctx, req, page, profile, idx)
			if err != nil {
				s.logger.Warn("site page failed", "site", req.Site, "page", page.PageName, "error", err)
				failed[i] = err
				return nil
			}
			created[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	var out BulkResult
	for i, page := range req.Pages {
		if created[i] != nil {
			out.Created = append(out.Created, *created[i])
			continue
		}
		out.Failed = append(out.Failed, PageFailure{PageName: page.PageName, Err: failed[i]})
	}
	return out, nil
}

func (s *Synthesizer) createPage(ctx context.Context, req BulkRequest, page BulkPage, profile *domain.IndustryProfile, idx domain.ComponentIndex) (SynthesisResult, error) {
	tmpl, err := s.templates.Resolve(page.Template)
	if err != nil {
		return SynthesisResult{}, err
	}
	if err := s.ensureAbsent(ctx, req.Site, page.PageName); err != nil {
		return SynthesisResult{}, err
	}
	brand := domain.NewBrandContext(req.Site, page.PageName, req.BusinessName, profile, req.BrandContext)
	return s.synthesize(ctx, tmpl, brand, idx)
}

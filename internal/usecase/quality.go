package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"SiteForge/internal/domain"
	"SiteForge/internal/htmlkit"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
)

// maxTitleLength is where search results start truncating titles.
const maxTitleLength = 60

const ctaSelector = `[data-cta], .cta a, a.cta, a[class*="btn"], a[href^="#contact"], a[href^="tel:"], a[href^="mailto:"], button[type="submit"], [data-section="cta"] a`

// HeuristicScorer grades a document with structural checks driven by the
// template guidelines. It never calls out.
type HeuristicScorer struct{}

var _ ports.Scorer = HeuristicScorer{}

func (HeuristicScorer) Score(_ context.Context, _ string, document string, tmpl domain.TemplateDefinition) (domain.QualityVerdict, error) {
	doc, err := htmlkit.Parse(document)
	if err != nil {
		return domain.QualityVerdict{}, err
	}

	v := &verdictBuilder{score: 100}

	switch title := strings.TrimSpace(doc.Find("head > title").First().Text()); {
	case title == "":
		v.fail(10, "Document has no title", "Set a descriptive <title> built from the business name")
	case utf8.RuneCountInString(title) > maxTitleLength:
		v.fail(5, fmt.Sprintf("Title is %d characters long", utf8.RuneCountInString(title)), fmt.Sprintf("Keep the title under %d characters", maxTitleLength))
	}
	if htmlkit.CountJSONLD(doc) == 0 {
		v.fail(10, "No Schema.org JSON-LD in head", "Add a JSON-LD block describing the page")
	}
	if doc.Find("body").Children().Length() == 0 {
		v.fail(60, "Page body is empty", "Produce every section of the template")
	}
	if n := doc.Find("[data-placeholder]").Length(); n > 0 {
		v.fail(15*n, fmt.Sprintf("%d section(s) could not be produced", n), "Write the missing sections")
	}

	if tmpl.HasGuideline("h1") {
		if n := doc.Find("h1").Length(); n != 1 {
			v.fail(20, "Page has "+strconv.Itoa(n)+" h1 elements, expected exactly one", "Keep a single h1 in the hero and demote the rest to h2")
		}
	}
	if tmpl.HasGuideline("heading hierarchy") {
		if from, to, ok := skippedHeading(doc); ok {
			v.fail(15, fmt.Sprintf("Heading hierarchy skips from h%d to h%d", from, to), "Use consecutive heading levels")
		}
	}
	if tmpl.HasGuideline("cta appears multiple") {
		if n := doc.Find(ctaSelector).Length(); n < 2 {
			v.fail(15, fmt.Sprintf("Call to action appears %d time(s)", n), "Repeat the primary call to action in the hero and near the end of the page")
		}
	}
	if tmpl.HasGuideline("alt text") {
		missing := doc.Find("img:not([alt]), img[alt='']").Length()
		if missing > 0 {
			v.fail(min(20, 5*missing), fmt.Sprintf("%d image(s) lack alt text", missing), "Describe every image in its alt attribute")
		}
	}
	if tmpl.HasGuideline("labels") {
		unlabeled := 0
		doc.Find("input:not([type=hidden]):not([type=submit]), textarea, select").Each(func(_ int, s *goquery.Selection) {
			if _, ok := s.Attr("aria-label"); ok {
				return
			}
			if id, ok := s.Attr("id"); ok && doc.Find(`label[for="`+id+`"]`).Length() > 0 {
				return
			}
			if s.ParentsFiltered("label").Length() > 0 {
				return
			}
			unlabeled++
		})
		if unlabeled > 0 {
			v.fail(10, fmt.Sprintf("%d form field(s) have no label", unlabeled), "Associate a <label> with every form field")
		}
	}

	return v.verdict(), nil
}

func skippedHeading(doc *goquery.Document) (int, int, bool) {
	prev := 0
	var from, to int
	found := false
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		level := int(goquery.NodeName(s)[1] - '0')
		if prev > 0 && level > prev+1 {
			from, to, found = prev, level, true
			return false
		}
		prev = level
		return true
	})
	return from, to, found
}

type verdictBuilder struct {
	score       int
	issues      []string
	suggestions []string
}

func (v *verdictBuilder) fail(penalty int, issue, suggestion string) {
	v.score -= penalty
	v.issues = append(v.issues, issue)
	v.suggestions = append(v.suggestions, suggestion)
}

func (v *verdictBuilder) verdict() domain.QualityVerdict {
	return domain.QualityVerdict{Score: max(0, min(100, v.score)), Issues: v.issues, Suggestions: v.suggestions}
}

// GateDeps wires the quality-gated retry loop.
type GateDeps struct {
	Resolver    *Resolver
	Assembler   *Assembler
	Scorer      ports.Scorer
	Threshold   int
	MaxAttempts int
	Strict      bool
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Gate runs resolve, assemble and score until a verdict passes or the
// attempt budget is spent.
type Gate struct {
	resolver    *Resolver
	assembler   *Assembler
	scorer      ports.Scorer
	threshold   int
	maxAttempts int
	strict      bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// GateResult is a document that passed the gate.
type GateResult struct {
	Document string
	Verdict  domain.QualityVerdict
	Attempts int
}

// NewGate constructs the loop. Zero threshold or attempts take the defaults
// of 70 and 3.
func NewGate(deps GateDeps) *Gate {
	g := &Gate{
		resolver:    deps.Resolver,
		assembler:   deps.Assembler,
		scorer:      deps.Scorer,
		threshold:   deps.Threshold,
		maxAttempts: deps.MaxAttempts,
		strict:      deps.Strict,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
	if g.scorer == nil {
		g.scorer = HeuristicScorer{}
	}
	if g.threshold <= 0 {
		g.threshold = 70
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = 3
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Run produces a passing document or fails. When at least one attempt was
// scored, exhaustion is reported as *domain.QualityExhaustedError with the
// last verdict; otherwise the last attempt's error is returned.
func (g *Gate) Run(ctx context.Context, tmpl domain.TemplateDefinition, brand domain.BrandContext, idx domain.ComponentIndex) (GateResult, error) {
	var (
		feedback    string
		last        *domain.QualityVerdict
		lastErr     error
		failedAdapt = map[int]bool{}
	)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return GateResult{}, err
		}
		log := g.logger.With("site", brand.Site, "page", brand.PageName, "attempt", attempt+1)

		plans := g.resolver.Plan(tmpl, idx, attempt, failedAdapt)
		fragments, err := g.resolver.Resolve(ctx, plans, tmpl, brand, feedback, g.strict)
		if err != nil {
			markFailedAdapts(plans, err, failedAdapt)
			if g.strict || fragments == nil {
				log.Warn("slot resolution failed", "error", err)
				g.metrics.Attempt("error", -1)
				lastErr = err
				continue
			}
			log.Warn("continuing with placeholder sections", "error", err)
		}

		document, err := g.assembler.Assemble(fragments, tmpl, brand)
		if err != nil {
			return GateResult{}, err
		}

		verdict, err := g.scorer.Score(ctx, brand.Site, document, tmpl)
		if err != nil {
			log.Warn("scoring failed", "error", err)
			g.metrics.Attempt("error", -1)
			lastErr = err
			continue
		}

		if verdict.Passes(g.threshold) {
			g.metrics.Attempt("passed", verdict.Score)
			log.Info("quality gate passed", "score", verdict.Score)
			return GateResult{Document: document, Verdict: verdict, Attempts: attempt + 1}, nil
		}

		g.metrics.Attempt("below_threshold", verdict.Score)
		log.Info("quality gate below threshold", "score", verdict.Score, "threshold", g.threshold, "issues", len(verdict.Issues))
		last = &verdict
		feedback = verdict.Feedback()
	}

	if last != nil {
		return GateResult{}, &domain.QualityExhaustedError{Attempts: g.maxAttempts, Threshold: g.threshold, Verdict: *last}
	}
	return GateResult{}, fmt.Errorf("synthesis failed after %d attempts: %w", g.maxAttempts, lastErr)
}

func markFailedAdapts(plans []SlotPlan, err error, failed map[int]bool) {
	for _, serr := range slotErrors(err) {
		if serr.Index < len(plans) {
			if _, ok := plans[serr.Index].(Reuse); ok {
				failed[serr.Index] = true
			}
		}
	}
}

func slotErrors(err error) []*domain.SlotError {
	if err == nil {
		return nil
	}
	var serr *domain.SlotError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*domain.SlotError
		for _, e := range joined.Unwrap() {
			out = append(out, slotErrors(e)...)
		}
		return out
	}
	if errors.As(err, &serr) {
		return []*domain.SlotError{serr}
	}
	return nil
}

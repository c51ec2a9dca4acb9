package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"SiteForge/internal/domain"
	"SiteForge/internal/htmlkit"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
	"SiteForge/internal/templates"
)

const (
	adaptSystemPrompt = `You adapt an existing website section to a new brand.
The markup structure is immutable: keep every element, class, id, ARIA attribute and Schema.org attribute (itemscope, itemtype, itemprop) exactly as given.
Rewrite only visible text and alt text so it matches the brand context.
Return only the HTML fragment, without markdown fences or commentary.`

	generateSystemPrompt = `You write one self-contained section of a marketing web page.
House style:
- semantic HTML5 with a single top-level <section>, <header>, <nav> or <footer> element
- ARIA landmarks and labels where they help assistive technology
- Schema.org microdata for business facts (itemscope, itemtype, itemprop)
- responsive utility classes, mobile first
- images carry descriptive alt text and loading="lazy", except the first image on the page
- headings never skip a level
Return only the HTML fragment, without markdown fences or commentary.`
)

// SlotRef identifies one slot of a template.
type SlotRef struct {
	Index int
	Name  string
	Type  domain.SectionType
}

// SlotPlan is the per-slot decision: either Reuse or Generate.
type SlotPlan interface {
	Ref() SlotRef
}

// Reuse adapts an existing component to the brand on the cheap tier.
type Reuse struct {
	SlotRef
	Component domain.ReusableComponent
}

// Generate writes the section from scratch on the expensive tier.
type Generate struct {
	SlotRef
}

func (r Reuse) Ref() SlotRef    { return r.SlotRef }
func (g Generate) Ref() SlotRef { return g.SlotRef }

// ResolverDeps wires the resolver.
type ResolverDeps struct {
	Generator             ports.TextGenerator
	Logger                *slog.Logger
	Metrics               *metrics.Metrics
	SectionTokens         int
	Concurrency           int
	GenerateOnFailedAdapt bool
}

// Resolver turns template slots into HTML fragments.
type Resolver struct {
	generator             ports.TextGenerator
	logger                *slog.Logger
	metrics               *metrics.Metrics
	sectionTokens         int
	concurrency           int
	generateOnFailedAdapt bool
}

// NewResolver constructs the section resolver.
func NewResolver(deps ResolverDeps) *Resolver {
	r := &Resolver{
		generator:             deps.Generator,
		logger:                deps.Logger,
		metrics:               deps.Metrics,
		sectionTokens:         deps.SectionTokens,
		concurrency:           deps.Concurrency,
		generateOnFailedAdapt: deps.GenerateOnFailedAdapt,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.sectionTokens <= 0 {
		r.sectionTokens = 4096
	}
	if r.concurrency <= 0 {
		r.concurrency = 4
	}
	return r
}

// Plan decides reuse or generate for every slot. Candidates rotate with the
// attempt number so a retry tries a different component. Slots listed in
// failedAdapt switch to generation when the resolver is configured to.
func (r *Resolver) Plan(tmpl domain.TemplateDefinition, idx domain.ComponentIndex, attempt int, failedAdapt map[int]bool) []SlotPlan {
	plans := make([]SlotPlan, len(tmpl.Sections))
	for i, name := range tmpl.Sections {
		ref := SlotRef{Index: i, Name: name, Type: templates.SlotType(name)}
		candidates := idx.Candidates(ref.Type)
		switch {
		case len(candidates) == 0:
			plans[i] = Generate{SlotRef: ref}
		case failedAdapt[i] && r.generateOnFailedAdapt:
			plans[i] = Generate{SlotRef: ref}
		default:
			plans[i] = Reuse{SlotRef: ref, Component: candidates[attempt%len(candidates)]}
		}
	}
	return plans
}

// Resolve produces one fragment per plan, in plan order. In strict mode the
// first slot failure cancels the remaining calls. Otherwise failed slots are
// left empty and reported together in the returned error.
func (r *Resolver) Resolve(ctx context.Context, plans []SlotPlan, tmpl domain.TemplateDefinition, brand domain.BrandContext, feedback string, strict bool) ([]string, error) {
	fragments := make([]string, len(plans))
	slotErrs := make([]error, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, plan := range plans {
		g.Go(func() error {
			fragment, err := r.resolveSlot(gctx, plan, tmpl, brand, feedback)
			if err != nil {
				ref := plan.Ref()
				serr := &domain.SlotError{Index: ref.Index, Slot: ref.Name, Err: err}
				if strict {
					return serr
				}
				slotErrs[i] = serr
				return nil
			}
			fragments[i] = fragment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fragments, errors.Join(slotErrs...)
}

func (r *Resolver) resolveSlot(ctx context.Context, plan SlotPlan, tmpl domain.TemplateDefinition, brand domain.BrandContext, feedback string) (string, error) {
	var req ports.TextRequest
	switch p := plan.(type) {
	case Reuse:
		r.metrics.SlotDecision("reuse")
		req = ports.TextRequest{
			Tier:      ports.TierCheap,
			System:    adaptSystemPrompt,
			MaxTokens: r.sectionTokens,
			Messages:  []ports.Message{{Role: "user", Content: adaptPrompt(p, brand, feedback)}},
		}
	case Generate:
		r.metrics.SlotDecision("generate")
		req = ports.TextRequest{
			Tier:      ports.TierExpensive,
			System:    generateSystemPrompt,
			MaxTokens: r.sectionTokens,
			Messages:  []ports.Message{{Role: "user", Content: generatePrompt(p, tmpl, brand, feedback)}},
		}
	default:
		return "", fmt.Errorf("unknown slot plan %T", plan)
	}

	out, err := r.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	fragment := htmlkit.CleanModelOutput(out)
	if !htmlkit.IsSectionFragment(fragment) {
		return "", &domain.MalformedPayloadError{Reason: "fragment has no top-level section element"}
	}

	r.logger.Debug("slot resolved", "slot", plan.Ref().Name, "tier", req.Tier, "bytes", len(fragment))
	return fragment, nil
}

func adaptPrompt(p Reuse, brand domain.BrandContext, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand context:\n%s\n\n", brand.Prompt())
	fmt.Fprintf(&b, "Section slot: %s (%s)\n", p.Name, p.Type)
	if p.Component.SchemaHint != "" {
		fmt.Fprintf(&b, "Structured data hint: %s\n", p.Component.SchemaHint)
	}
	fmt.Fprintf(&b, "\nSection HTML:\n%s\n", p.Component.HTML)
	if feedback != "" {
		fmt.Fprintf(&b, "\n%s\n", feedback)
	}
	return b.String()
}

func generatePrompt(p Generate, tmpl domain.TemplateDefinition, brand domain.BrandContext, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand context:\n%s\n\n", brand.Prompt())
	fmt.Fprintf(&b, "Page template: %s\n", tmpl.Name)
	fmt.Fprintf(&b, "Write section %d of %d: %s\n", p.Index+1, len(tmpl.Sections), p.Name)
	if len(tmpl.Guidelines) > 0 {
		b.WriteString("Page guidelines:\n")
		for _, g := range tmpl.Guidelines {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	if p.Index == 0 || p.Type == domain.SectionHero {
		b.WriteString("This section may hold the first image on the page: do not lazy-load it.\n")
	}
	if p.Type == domain.SectionHero {
		b.WriteString("This section carries the page's only h1.\n")
	} else {
		b.WriteString("Use h2 and below; the page's only h1 lives in the hero.\n")
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\n%s\n", feedback)
	}
	return b.String()
}

package components

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SiteForge/internal/domain"
)

// nameHints are checked in order; the first keyword found in the component
// name or tags decides the type.
var nameHints = []struct {
	keyword string
	kind    domain.SectionType
}{
	{"navbar", domain.SectionNavigation},
	{"navigation", domain.SectionNavigation},
	{"menu", domain.SectionNavigation},
	{"hero", domain.SectionHero},
	{"banner", domain.SectionHero},
	{"footer", domain.SectionFooter},
	{"testimonial", domain.SectionTestimonials},
	{"review", domain.SectionTestimonials},
	{"pricing", domain.SectionPricing},
	{"plans", domain.SectionPricing},
	{"faq", domain.SectionFAQ},
	{"question", domain.SectionFAQ},
	{"contact", domain.SectionContact},
	{"team", domain.SectionTeam},
	{"staff", domain.SectionTeam},
	{"gallery", domain.SectionGallery},
	{"portfolio", domain.SectionGallery},
	{"service", domain.SectionServices},
	{"feature", domain.SectionFeatures},
	{"benefit", domain.SectionFeatures},
	{"about", domain.SectionAbout},
	{"story", domain.SectionAbout},
	{"cta", domain.SectionCTA},
	{"call to action", domain.SectionCTA},
	{"call-to-action", domain.SectionCTA},
}

// Classify infers a section type from the component name and tags, then from
// its markup. It returns SectionUnknown when nothing matches.
func Classify(name, markup string, tags []string) domain.SectionType {
	haystack := strings.ToLower(name + " " + strings.Join(tags, " "))
	for _, h := range nameHints {
		if strings.Contains(haystack, h.keyword) {
			return h.kind
		}
	}
	return classifyMarkup(markup)
}

func classifyMarkup(markup string) domain.SectionType {
	if strings.TrimSpace(markup) == "" {
		return domain.SectionUnknown
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return domain.SectionUnknown
	}
	body := doc.Find("body")
	root := body.Children().First()

	switch {
	case root.Is("nav") || (root.Is("header") && root.Find("nav").Length() > 0):
		return domain.SectionNavigation
	case root.Is("footer"):
		return domain.SectionFooter
	case body.Find("form").Length() > 0:
		return domain.SectionContact
	case body.Find("details, [itemtype$='FAQPage'], [itemtype$='Question']").Length() > 0:
		return domain.SectionFAQ
	case body.Find("blockquote, [itemtype$='Review']").Length() > 0:
		return domain.SectionTestimonials
	case body.Find("[itemtype$='Offer'], [class*='price']").Length() > 0:
		return domain.SectionPricing
	case body.Find("h1").Length() > 0:
		return domain.SectionHero
	case body.Find("[itemtype$='Person']").Length() > 1:
		return domain.SectionTeam
	case body.Find("img").Length() >= 4 && body.Find("p").Length() <= 1:
		return domain.SectionGallery
	case body.Find("a, button").Length() > 0 && body.Find("h2").Length() == 1 && body.Find("li").Length() == 0:
		return domain.SectionCTA
	case body.Find("li, article").Length() >= 3:
		return domain.SectionFeatures
	default:
		return domain.SectionUnknown
	}
}

package domain

import "strings"

// SectionType is the canonical kind of a page section (Hero, CTA, Footer, ...).
type SectionType string

const (
	SectionNavigation   SectionType = "Navigation"
	SectionHero         SectionType = "Hero"
	SectionFeatures     SectionType = "Features"
	SectionServices     SectionType = "Services"
	SectionTestimonials SectionType = "Testimonials"
	SectionCTA          SectionType = "CTA"
	SectionContact      SectionType = "Contact"
	SectionFooter       SectionType = "Footer"
	SectionPricing      SectionType = "Pricing"
	SectionFAQ          SectionType = "FAQ"
	SectionTeam         SectionType = "Team"
	SectionGallery      SectionType = "Gallery"
	SectionAbout        SectionType = "About"
	SectionUnknown      SectionType = ""
)

// TemplateDefinition describes the ordered sections and SEO rules of a page kind.
// Definitions are registered at start-up and never mutated afterwards.
type TemplateDefinition struct {
	Name        string   `yaml:"name"`
	Sections    []string `yaml:"sections"`
	PageType    string   `yaml:"pageType"`
	TitleFormat string   `yaml:"titleFormat"`
	Guidelines  []string `yaml:"guidelines"`
}

// Validate reports whether the definition can drive a synthesis run.
func (t TemplateDefinition) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "template.name", Reason: "is required"}
	}
	if len(t.Sections) == 0 {
		return &ValidationError{Field: "template.sections", Reason: "must list at least one slot"}
	}
	return nil
}

// HasGuideline reports whether any guideline mentions the given keyword.
func (t TemplateDefinition) HasGuideline(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, g := range t.Guidelines {
		if strings.Contains(strings.ToLower(g), keyword) {
			return true
		}
	}
	return false
}

package templates

import (
	"strings"

	"SiteForge/internal/domain"
)

// SlotTypes maps template slot names to canonical section types.
// Slots missing from the table are always generated.
var SlotTypes = map[string]domain.SectionType{
	"navbar":       domain.SectionNavigation,
	"navigation":   domain.SectionNavigation,
	"header":       domain.SectionNavigation,
	"hero":         domain.SectionHero,
	"features":     domain.SectionFeatures,
	"benefits":     domain.SectionFeatures,
	"services":     domain.SectionServices,
	"testimonials": domain.SectionTestimonials,
	"reviews":      domain.SectionTestimonials,
	"cta":          domain.SectionCTA,
	"contactform":  domain.SectionContact,
	"contact":      domain.SectionContact,
	"footer":       domain.SectionFooter,
	"pricing":      domain.SectionPricing,
	"faq":          domain.SectionFAQ,
	"team":         domain.SectionTeam,
	"gallery":      domain.SectionGallery,
	"about":        domain.SectionAbout,
	"story":        domain.SectionAbout,
}

// SlotType returns the canonical type of a slot, or SectionUnknown.
func SlotType(slot string) domain.SectionType {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(slot))
	return SlotTypes[key]
}

var builtinTemplates = []domain.TemplateDefinition{
	{
		Name:        "Homepage",
		Sections:    []string{"Navbar", "Hero", "Features", "Testimonials", "CTA", "Footer"},
		PageType:    "WebPage",
		TitleFormat: "{business} | {industry}",
		Guidelines: []string{
			"Exactly one h1, inside the hero",
			"Heading hierarchy correct: never skip a level",
			"CTA appears multiple times on the page",
			"Every image has descriptive alt text",
			"Mention the business name in the hero and footer",
		},
	},
	{
		Name:        "About",
		Sections:    []string{"Navbar", "Hero", "Story", "Team", "CTA", "Footer"},
		PageType:    "AboutPage",
		TitleFormat: "About {business}",
		Guidelines: []string{
			"Exactly one h1",
			"Heading hierarchy correct: never skip a level",
			"Tell the founding story in the first person plural",
			"Every image has descriptive alt text",
		},
	},
	{
		Name:        "Services",
		Sections:    []string{"Navbar", "Hero", "Services", "Pricing", "FAQ", "CTA", "Footer"},
		PageType:    "CollectionPage",
		TitleFormat: "{page} | {business}",
		Guidelines: []string{
			"Exactly one h1",
			"Heading hierarchy correct: never skip a level",
			"CTA appears multiple times on the page",
			"Each service lists a concrete outcome",
		},
	},
	{
		Name:        "Contact",
		Sections:    []string{"Navbar", "ContactForm", "Map", "Footer"},
		PageType:    "ContactPage",
		TitleFormat: "Contact {business}",
		Guidelines: []string{
			"Exactly one h1",
			"Heading hierarchy correct: never skip a level",
			"Form fields have associated labels",
			"Show phone, email and address in microdata",
		},
	},
	{
		Name:        "Landing",
		Sections:    []string{"Hero", "Benefits", "Testimonials", "Pricing", "CTA"},
		PageType:    "WebPage",
		TitleFormat: "{page} | {business}",
		Guidelines: []string{
			"Exactly one h1",
			"Heading hierarchy correct: never skip a level",
			"CTA appears multiple times on the page",
			"No outbound navigation besides the CTA",
		},
	},
}

var builtinIndustries = []domain.IndustryProfile{
	{
		Name:        "restaurant",
		Tone:        "warm, inviting, sensory",
		Audience:    "local diners and families",
		Services:    []string{"dine-in", "takeaway", "private events"},
		SellingUSPs: []string{"seasonal menu", "locally sourced ingredients"},
		AccentColor: "#b45309",
	},
	{
		Name:        "plumber",
		Tone:        "reassuring, direct, practical",
		Audience:    "homeowners with urgent repairs",
		Services:    []string{"emergency repairs", "boiler installation", "drain cleaning"},
		SellingUSPs: []string{"24/7 call-out", "fixed-price quotes", "licensed and insured"},
		AccentColor: "#1d4ed8",
	},
	{
		Name:        "dentist",
		Tone:        "calm, professional, friendly",
		Audience:    "families and anxious patients",
		Services:    []string{"check-ups", "whitening", "implants"},
		SellingUSPs: []string{"gentle care", "evening appointments"},
		AccentColor: "#0f766e",
	},
	{
		Name:        "legal",
		Tone:        "authoritative, precise, trustworthy",
		Audience:    "individuals and small businesses",
		Services:    []string{"contracts", "employment law", "dispute resolution"},
		SellingUSPs: []string{"free first consultation", "transparent fees"},
		AccentColor: "#334155",
	},
	{
		Name:        "saas",
		Tone:        "confident, concise, benefit-led",
		Audience:    "operations and product teams",
		Services:    []string{"workflow automation", "integrations", "analytics"},
		SellingUSPs: []string{"set up in minutes", "SOC 2 compliant"},
		AccentColor: "#7c3aed",
	},
}

package domain

import (
	"fmt"
	"strings"
)

// IndustryProfile holds the defaults applied when a caller names an industry.
type IndustryProfile struct {
	Name        string   `yaml:"name"`
	Tone        string   `yaml:"tone"`
	Audience    string   `yaml:"audience"`
	Services    []string `yaml:"services"`
	SellingUSPs []string `yaml:"usps"`
	AccentColor string   `yaml:"accentColor"`
}

// Block renders the profile as prompt text.
func (p IndustryProfile) Block() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Industry: %s\n", p.Name)
	if p.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", p.Tone)
	}
	if p.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", p.Audience)
	}
	if len(p.Services) > 0 {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(p.Services, ", "))
	}
	if len(p.SellingUSPs) > 0 {
		fmt.Fprintf(&b, "Unique selling points: %s\n", strings.Join(p.SellingUSPs, "; "))
	}
	if p.AccentColor != "" {
		fmt.Fprintf(&b, "Accent color: %s\n", p.AccentColor)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BrandContext is the brand/business context a page is written for.
type BrandContext struct {
	Site         string
	PageName     string
	BusinessName string
	Industry     string
	Text         string
}

// NewBrandContext overlays caller text on top of optional industry defaults.
// Defaults are prepended; the caller's text is kept verbatim after them.
func NewBrandContext(site, pageName, businessName string, profile *IndustryProfile, callerText string) BrandContext {
	bc := BrandContext{
		Site:         site,
		PageName:     pageName,
		BusinessName: strings.TrimSpace(businessName),
	}
	if bc.BusinessName == "" {
		bc.BusinessName = site
	}

	var parts []string
	if profile != nil {
		bc.Industry = profile.Name
		parts = append(parts, profile.Block())
	}
	if t := strings.TrimSpace(callerText); t != "" {
		parts = append(parts, t)
	}
	bc.Text = strings.Join(parts, "\n\n")
	return bc
}

// Prompt renders the context block used in generation prompts.
func (b BrandContext) Prompt() string {
	var s strings.Builder
	fmt.Fprintf(&s, "Business name: %s\n", b.BusinessName)
	fmt.Fprintf(&s, "Page: %s\n", b.PageName)
	if b.Text != "" {
		s.WriteString(b.Text)
	}
	return strings.TrimRight(s.String(), "\n")
}

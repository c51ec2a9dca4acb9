package usecase

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"SiteForge/internal/domain"
	"SiteForge/internal/htmlkit"
	"SiteForge/internal/schemaorg"
)

// Assembler stitches ordered fragments into one HTML document.
type Assembler struct {
	canonicalPattern string
}

// NewAssembler builds an assembler. canonicalPattern is an origin with an
// optional {site} token, e.g. https://{site}.pages.example.org.
func NewAssembler(canonicalPattern string) *Assembler {
	return &Assembler{canonicalPattern: canonicalPattern}
}

// Assemble renders the page shell around fragments. An empty fragment is
// replaced by an empty placeholder section so every slot keeps its position.
func (a *Assembler) Assemble(fragments []string, tmpl domain.TemplateDefinition, brand domain.BrandContext) (string, error) {
	if len(fragments) != len(tmpl.Sections) {
		return "", fmt.Errorf("assemble %s: %d fragments for %d slots", tmpl.Name, len(fragments), len(tmpl.Sections))
	}

	title := FormatTitle(tmpl.TitleFormat, brand)
	canonical := a.CanonicalURL(brand.Site, brand.PageName)
	graph, err := schemaorg.PageGraph(tmpl.PageType, schemaorg.PageRef{Name: title, URL: canonical}, brand.BusinessName)
	if err != nil {
		return "", fmt.Errorf("assemble %s: %w", tmpl.Name, err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	if canonical != "" {
		fmt.Fprintf(&b, "<link rel=\"canonical\" href=\"%s\">\n", html.EscapeString(canonical))
	}
	fmt.Fprintf(&b, "<script type=\"application/ld+json\">%s</script>\n", graph)
	b.WriteString("</head>\n<body>\n")
	for i, fragment := range fragments {
		if strings.TrimSpace(fragment) == "" {
			fragment = placeholder(tmpl.Sections[i])
		}
		b.WriteString(fragment)
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")

	doc, err := htmlkit.Parse(b.String())
	if err != nil {
		return "", err
	}
	htmlkit.LazyLoadImages(doc)
	return htmlkit.Render(doc)
}

// CanonicalURL joins the site origin and the page path.
func (a *Assembler) CanonicalURL(site, page string) string {
	if a.canonicalPattern == "" {
		return ""
	}
	base := strings.TrimRight(strings.ReplaceAll(a.canonicalPattern, "{site}", site), "/")
	if strings.EqualFold(page, "index") || strings.EqualFold(page, "home") {
		return base + "/"
	}
	return base + "/" + page
}

// FormatTitle substitutes {business}, {industry}, {page} and {site} tokens.
// Separators left dangling by empty tokens are trimmed.
func FormatTitle(format string, brand domain.BrandContext) string {
	if format == "" {
		format = "{page} | {business}"
	}
	r := strings.NewReplacer(
		"{business}", brand.BusinessName,
		"{industry}", titleCase(brand.Industry),
		"{page}", titleCase(brand.PageName),
		"{site}", brand.Site,
	)
	title := strings.Trim(r.Replace(format), " |-")
	return strings.ReplaceAll(title, "|  |", "|")
}

func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func placeholder(slot string) string {
	return fmt.Sprintf(`<section data-slot="%s" data-placeholder="true"></section>`, html.EscapeString(slot))
}

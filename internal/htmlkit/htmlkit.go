// Package htmlkit holds the HTML passes shared by page assembly, save-time
// enhancement and quality scoring.
package htmlkit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const jsonLDSelector = `script[type="application/ld+json"]`

var (
	fencePattern      = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n(.*?)\\n?```\\s*$")
	rootMarkerPattern = regexp.MustCompile(`(?i)<!doctype\s+html|<html[\s>]`)
)

var sectionAtoms = map[atom.Atom]bool{
	atom.Section: true,
	atom.Header:  true,
	atom.Footer:  true,
	atom.Nav:     true,
	atom.Main:    true,
	atom.Article: true,
	atom.Aside:   true,
}

// Parse builds a goquery document from a full HTML string.
func Parse(doc string) (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return d, nil
}

// Render serialises a document including its doctype.
func Render(doc *goquery.Document) (string, error) {
	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return out, nil
}

// CleanModelOutput removes markdown code fences models like to wrap HTML in.
func CleanModelOutput(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// IsSectionFragment reports whether a fragment has at least one top-level
// section-like element (section, header, footer, nav, main, article, aside).
func IsSectionFragment(fragment string) bool {
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return false
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode && sectionAtoms[n.DataAtom] {
			return true
		}
	}
	return false
}

// HasRootMarker reports whether the string looks like a whole HTML document.
func HasRootMarker(doc string) bool {
	return rootMarkerPattern.MatchString(doc)
}

// StripEditorMarkers removes the instrumentation the visual editor injects:
// editor-only elements, data-editor* and contenteditable attributes and
// sf-editor-* classes. Running it on clean markup changes nothing.
func StripEditorMarkers(doc *goquery.Document) {
	doc.Find("[data-editor-only], script[data-editor], style[data-editor], #siteforge-editor-bridge").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			if a.Key == "contenteditable" || strings.HasPrefix(a.Key, "data-editor") {
				continue
			}
			if a.Key == "class" {
				a.Val = stripEditorClasses(a.Val)
				if a.Val == "" {
					continue
				}
			}
			kept = append(kept, a)
		}
		node.Attr = kept
	})
}

func stripEditorClasses(value string) string {
	fields := strings.Fields(value)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "sf-editor-") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// CountJSONLD returns the number of JSON-LD script blocks in the document.
func CountJSONLD(doc *goquery.Document) int {
	return doc.Find(jsonLDSelector).Length()
}

// ReplaceJSONLD removes every existing JSON-LD block and appends the given
// payloads to <head>. The result always carries exactly len(blocks) blocks.
func ReplaceJSONLD(doc *goquery.Document, blocks []string) {
	doc.Find(jsonLDSelector).Remove()
	head := doc.Find("head").First()
	for _, b := range blocks {
		head.AppendHtml(`<script type="application/ld+json">` + b + `</script>`)
	}
}

// LazyLoadImages marks every image lazy except the hero image, which gets a
// high fetch priority instead.
func LazyLoadImages(doc *goquery.Document) {
	hero := heroImage(doc)
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if hero != nil && img.Get(0) == hero {
			img.RemoveAttr("loading")
			img.SetAttr("fetchpriority", "high")
			return
		}
		img.SetAttr("loading", "lazy")
		img.SetAttr("decoding", "async")
	})
}

func heroImage(doc *goquery.Document) *html.Node {
	candidates := []string{
		`[data-section="hero"] img`,
		`.hero img`,
		`#hero img`,
		`header img`,
		`body img`,
	}
	for _, sel := range candidates {
		if img := doc.Find(sel).First(); img.Length() > 0 {
			return img.Get(0)
		}
	}
	return nil
}

// SetTitle replaces the document title.
func SetTitle(doc *goquery.Document, title string) {
	head := doc.Find("head").First()
	t := head.Find("title")
	if t.Length() == 0 {
		head.PrependHtml("<title></title>")
		t = head.Find("title")
	}
	t.First().SetText(title)
}

// SetMetaDescription creates or updates <meta name="description">.
func SetMetaDescription(doc *goquery.Document, description string) {
	head := doc.Find("head").First()
	meta := head.Find(`meta[name="description"]`)
	if meta.Length() == 0 {
		head.AppendHtml(`<meta name="description">`)
		meta = head.Find(`meta[name="description"]`)
	}
	meta.First().SetAttr("content", description)
}

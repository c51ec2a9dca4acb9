package htmlkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelOutput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<section>a</section>", CleanModelOutput("```html\n<section>a</section>\n```"))
	assert.Equal(t, "<section>b</section>", CleanModelOutput("  <section>b</section>\n"))
	assert.Equal(t, "<footer>c</footer>", CleanModelOutput("```\n<footer>c</footer>```"))
}

func TestIsSectionFragment(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSectionFragment("<section><h2>x</h2></section>"))
	assert.True(t, IsSectionFragment("<!-- nav -->\n<nav><a href='/'>Home</a></nav>"))
	assert.False(t, IsSectionFragment("<div>not a section</div>"))
	assert.False(t, IsSectionFragment("Sorry, I cannot help with that."))
	assert.False(t, IsSectionFragment("   "))
}

func TestHasRootMarker(t *testing.T) {
	t.Parallel()

	assert.True(t, HasRootMarker("<!DOCTYPE html><html></html>"))
	assert.True(t, HasRootMarker("<html lang=\"en\"><body></body></html>"))
	assert.False(t, HasRootMarker("<section>fragment</section>"))
}

func TestStripEditorMarkers(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<!DOCTYPE html><html><head><script data-editor>bridge()</script></head><body>` +
		`<section class="hero sf-editor-selected" contenteditable="true" data-editor-id="4"><h1>Hi</h1></section>` +
		`<div data-editor-only>toolbar</div><p class="sf-editor-hover">x</p></body></html>`)
	require.NoError(t, err)

	StripEditorMarkers(doc)
	out, err := Render(doc)
	require.NoError(t, err)

	assert.NotContains(t, out, "bridge()")
	assert.NotContains(t, out, "toolbar")
	assert.NotContains(t, out, "contenteditable")
	assert.NotContains(t, out, "data-editor")
	assert.NotContains(t, out, "sf-editor")
	assert.Contains(t, out, `<section class="hero"><h1>Hi</h1></section>`)
	assert.Contains(t, out, "<p>x</p>")

	// A second pass is a no-op.
	StripEditorMarkers(doc)
	again, _ := Render(doc)
	assert.Equal(t, out, again)
}

func TestReplaceJSONLDAndHead(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<html><head><title>Old</title><script type="application/ld+json">{"@type":"Thing"}</script></head><body></body></html>`)
	require.NoError(t, err)

	ReplaceJSONLD(doc, []string{`{"@type":"Dentist"}`, `{"@type":"FAQPage"}`})
	SetTitle(doc, "New & improved")
	SetMetaDescription(doc, "Gentle care")
	SetMetaDescription(doc, "Gentle care, evenings")

	assert.Equal(t, 2, CountJSONLD(doc))
	assert.Equal(t, "New & improved", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find(`meta[name="description"]`).Length())
	content, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Gentle care, evenings", content)

	out, _ := Render(doc)
	assert.NotContains(t, out, `"Thing"`)
}

func TestLazyLoadImages(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<html><body><nav><img src="logo.png"></nav>` +
		`<section data-section="hero"><img src="hero.jpg" loading="lazy"></section>` +
		`<section><img src="a.jpg"><img src="b.jpg"></section></body></html>`)
	require.NoError(t, err)

	LazyLoadImages(doc)

	hero := doc.Find(`img[src="hero.jpg"]`)
	_, lazy := hero.Attr("loading")
	assert.False(t, lazy)
	assert.Equal(t, "high", hero.AttrOr("fetchpriority", ""))

	for _, src := range []string{"logo.png", "a.jpg", "b.jpg"} {
		img := doc.Find(`img[src="` + src + `"]`)
		assert.Equal(t, "lazy", img.AttrOr("loading", ""), src)
		assert.Equal(t, "async", img.AttrOr("decoding", ""), src)
	}

	out, _ := Render(doc)
	assert.Equal(t, 1, strings.Count(out, "fetchpriority"))
}

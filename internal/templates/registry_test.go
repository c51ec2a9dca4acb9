package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteForge/internal/domain"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	assert.Equal(t, []string{"About", "Contact", "Homepage", "Landing", "Services"}, r.Names())

	tmpl, err := r.Resolve(" homepage ")
	require.NoError(t, err)
	assert.Equal(t, "Homepage", tmpl.Name)
	assert.Equal(t, []string{"Navbar", "Hero", "Features", "Testimonials", "CTA", "Footer"}, tmpl.Sections)

	// Callers get copies.
	tmpl.Sections[0] = "Mutated"
	again, _ := r.Resolve("Homepage")
	assert.Equal(t, "Navbar", again.Sections[0])

	_, err = r.Resolve("Blog")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "template", verr.Field)

	assert.NotNil(t, r.Industry("Plumber"))
	assert.Nil(t, r.Industry("astronaut"))
	assert.Nil(t, r.Industry(""))
}

func TestSlotType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.SectionNavigation, SlotType("Navbar"))
	assert.Equal(t, domain.SectionContact, SlotType("Contact Form"))
	assert.Equal(t, domain.SectionCTA, SlotType("cta"))
	assert.Equal(t, domain.SectionUnknown, SlotType("Map"))
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `templates:
  - name: Menu
    sections: [Navbar, Hero, Gallery, Footer]
    pageType: WebPage
    titleFormat: "Menu | {business}"
    guidelines:
      - Exactly one h1
industries:
  - name: bakery
    tone: cosy
    usps: [sourdough]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r := NewDefaultRegistry()
	require.NoError(t, r.LoadFile(path))

	menu, err := r.Resolve("menu")
	require.NoError(t, err)
	assert.Equal(t, []string{"Navbar", "Hero", "Gallery", "Footer"}, menu.Sections)
	assert.Equal(t, "Menu | {business}", menu.TitleFormat)

	bakery := r.Industry("bakery")
	require.NotNil(t, bakery)
	assert.Equal(t, []string{"sourdough"}, bakery.SellingUSPs)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := map[string]string{
		"no sections": "templates:\n  - name: Empty\n",
		"no name":     "industries:\n  - tone: calm\n",
		"bad yaml":    "templates: [",
	}
	for name, content := range cases {
		path := filepath.Join(dir, filepath.Base(name)+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		assert.Error(t, NewRegistry().LoadFile(path), name)
	}
	assert.Error(t, NewRegistry().LoadFile(filepath.Join(dir, "missing.yaml")))
}

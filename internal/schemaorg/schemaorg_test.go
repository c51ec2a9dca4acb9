package schemaorg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		businessType string
		facts        BusinessFacts
		want         string
	}{
		{"Restaurant", BusinessFacts{}, "Restaurant"},
		{"family dental practice", BusinessFacts{}, "Dentist"},
		{"emergency-plumbing", BusinessFacts{}, "Plumber"},
		{"bar", BusinessFacts{}, "BarOrPub"},
		{"barber", BusinessFacts{}, "Organization"},
		{"", BusinessFacts{Address: &Address{Locality: "Leeds"}}, "LocalBusiness"},
		{"mystery", BusinessFacts{}, "Organization"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TypeFor(tc.businessType, tc.facts), tc.businessType)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	facts := BusinessFacts{
		Name:         "Bright Smiles",
		Telephone:    "+44 113 000 0000",
		Address:      &Address{Street: "1 High St", Locality: "Leeds", Country: "GB"},
		OpeningHours: []string{"Mo-Fr 09:00-18:00"},
		SameAs:       []string{"https://x.example/b", "https://x.example/a"},
		Services:     []string{"Whitening"},
		FAQ: []QA{
			{Question: "Do you take new patients?", Answer: "Yes."},
			{Question: "   ", Answer: "dropped"},
		},
	}

	first, schemaType, err := Build("dentist", facts)
	require.NoError(t, err)
	second, _, err := Build("dentist", facts)
	require.NoError(t, err)

	assert.Equal(t, "Dentist", schemaType)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)

	var business map[string]any
	require.NoError(t, json.Unmarshal([]byte(first[0]), &business))
	assert.Equal(t, "https://schema.org", business["@context"])
	assert.Equal(t, "Dentist", business["@type"])
	assert.Equal(t, []any{"https://x.example/a", "https://x.example/b"}, business["sameAs"])
	address := business["address"].(map[string]any)
	assert.Equal(t, "PostalAddress", address["@type"])
	assert.Equal(t, "Leeds", address["addressLocality"])
	_, hasRegion := address["addressRegion"]
	assert.False(t, hasRegion)

	var faq map[string]any
	require.NoError(t, json.Unmarshal([]byte(first[1]), &faq))
	assert.Equal(t, "FAQPage", faq["@type"])
	assert.Len(t, faq["mainEntity"], 1)
}

func TestBuildOrganizationOmitsLocalFields(t *testing.T) {
	t.Parallel()

	blocks, schemaType, err := Build("software", BusinessFacts{
		Name:         "Flowly",
		PriceRange:   "$$",
		OpeningHours: []string{"Mo-Su"},
		Geo:          &GeoPoint{Latitude: 1, Longitude: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Organization", schemaType)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0], "priceRange")
	assert.NotContains(t, blocks[0], "openingHours")
	assert.NotContains(t, blocks[0], "geo")
}

func TestBuildEscapesScriptClose(t *testing.T) {
	t.Parallel()

	blocks, _, err := Build("restaurant", BusinessFacts{Name: "</script><b>Luigi"})
	require.NoError(t, err)
	assert.NotContains(t, blocks[0], "</script>")
}

func TestPageGraph(t *testing.T) {
	t.Parallel()

	raw, err := PageGraph("", PageRef{Name: "Home", URL: "https://acme.example.org/"}, "Acme")
	require.NoError(t, err)

	var graph map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &graph))
	assert.Equal(t, "WebPage", graph["@type"])
	assert.Equal(t, "https://acme.example.org/", graph["url"])
	assert.Equal(t, "Acme", graph["publisher"].(map[string]any)["name"])
	_, hasDescription := graph["description"]
	assert.False(t, hasDescription)
}

// Package schemaorg renders canonical Schema.org JSON-LD from extracted facts.
// Nothing here calls a model: the same facts always yield the same bytes.
package schemaorg

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const schemaContext = "https://schema.org"

// Address is a postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	Locality   string `json:"locality,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *Address) empty() bool {
	return a == nil || (a.Street == "" && a.Locality == "" && a.Region == "" && a.PostalCode == "" && a.Country == "")
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QA is one frequently asked question.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BusinessFacts are the facts a model extracts from page copy.
type BusinessFacts struct {
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Telephone    string    `json:"telephone,omitempty"`
	Email        string    `json:"email,omitempty"`
	URL          string    `json:"url,omitempty"`
	Logo         string    `json:"logo,omitempty"`
	Image        string    `json:"image,omitempty"`
	PriceRange   string    `json:"priceRange,omitempty"`
	Address      *Address  `json:"address,omitempty"`
	Geo          *GeoPoint `json:"geo,omitempty"`
	OpeningHours []string  `json:"openingHours,omitempty"`
	SameAs       []string  `json:"sameAs,omitempty"`
	Services     []string  `json:"services,omitempty"`
	FAQ          []QA      `json:"faq,omitempty"`
}

// PageRef identifies the page a graph describes.
type PageRef struct {
	Name        string
	URL         string
	Description string
}

var businessTypes = map[string]string{
	"restaurant":     "Restaurant",
	"cafe":           "CafeOrCoffeeShop",
	"coffee":         "CafeOrCoffeeShop",
	"bakery":         "Bakery",
	"bar":            "BarOrPub",
	"dentist":        "Dentist",
	"dental":         "Dentist",
	"doctor":         "MedicalClinic",
	"medical":        "MedicalClinic",
	"clinic":         "MedicalClinic",
	"plumber":        "Plumber",
	"plumbing":       "Plumber",
	"electrician":    "Electrician",
	"roofing":        "RoofingContractor",
	"contractor":     "GeneralContractor",
	"legal":          "LegalService",
	"lawyer":         "LegalService",
	"attorney":       "LegalService",
	"accountant":     "AccountingService",
	"accounting":     "AccountingService",
	"salon":          "HairSalon",
	"hair":           "HairSalon",
	"spa":            "DaySpa",
	"gym":            "ExerciseGym",
	"fitness":        "ExerciseGym",
	"hotel":          "Hotel",
	"realestate":     "RealEstateAgent",
	"autorepair":     "AutoRepair",
	"mechanic":       "AutoRepair",
	"store":          "Store",
	"retail":         "Store",
	"shop":           "Store",
	"veterinary":     "VeterinaryCare",
	"vet":            "VeterinaryCare",
	"school":         "EducationalOrganization",
	"saas":           "Organization",
	"software":       "Organization",
	"agency":         "ProfessionalService",
	"consulting":     "ProfessionalService",
	"localbusiness":  "LocalBusiness",
	"organization":   "Organization",
	"professional":   "ProfessionalService",
	"homeandservice": "HomeAndConstructionBusiness",
}

// fuzzyKeys orders the lookup keys longest first so substring matching is
// stable. Keys shorter than five letters only match exactly.
var fuzzyKeys = func() []string {
	keys := make([]string, 0, len(businessTypes))
	for k := range businessTypes {
		if len(k) >= 5 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// TypeFor maps a free-form business type to a Schema.org type. Unknown types
// become LocalBusiness when the business has a street presence and
// Organization otherwise.
func TypeFor(businessType string, facts BusinessFacts) string {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(businessType))
	if t, ok := businessTypes[key]; ok {
		return t
	}
	if key != "" {
		for _, k := range fuzzyKeys {
			if strings.Contains(key, k) {
				return businessTypes[k]
			}
		}
	}
	if !facts.Address.empty() {
		return "LocalBusiness"
	}
	return "Organization"
}

// Build renders the JSON-LD blocks for a business and returns them with the
// chosen Schema.org type. An FAQPage block is added when facts carry questions.
func Build(businessType string, facts BusinessFacts) ([]string, string, error) {
	schemaType := TypeFor(businessType, facts)

	business := map[string]any{
		"@context": schemaContext,
		"@type":    schemaType,
	}
	putString(business, "name", facts.Name)
	putString(business, "description", facts.Description)
	putString(business, "telephone", facts.Telephone)
	putString(business, "email", facts.Email)
	putString(business, "url", facts.URL)
	putString(business, "logo", facts.Logo)
	putString(business, "image", facts.Image)
	if schemaType != "Organization" {
		putString(business, "priceRange", facts.PriceRange)
		if len(facts.OpeningHours) > 0 {
			business["openingHours"] = append([]string(nil), facts.OpeningHours...)
		}
		if facts.Geo != nil {
			business["geo"] = map[string]any{
				"@type":     "GeoCoordinates",
				"latitude":  facts.Geo.Latitude,
				"longitude": facts.Geo.Longitude,
			}
		}
	}
	if !facts.Address.empty() {
		addr := map[string]any{"@type": "PostalAddress"}
		putString(addr, "streetAddress", facts.Address.Street)
		putString(addr, "addressLocality", facts.Address.Locality)
		putString(addr, "addressRegion", facts.Address.Region)
		putString(addr, "postalCode", facts.Address.PostalCode)
		putString(addr, "addressCountry", facts.Address.Country)
		business["address"] = addr
	}
	if len(facts.SameAs) > 0 {
		sameAs := append([]string(nil), facts.SameAs...)
		sort.Strings(sameAs)
		business["sameAs"] = sameAs
	}
	if len(facts.Services) > 0 {
		offers := make([]map[string]any, 0, len(facts.Services))
		for _, s := range facts.Services {
			offers = append(offers, map[string]any{
				"@type":       "Offer",
				"itemOffered": map[string]any{"@type": "Service", "name": s},
			})
		}
		business["makesOffer"] = offers
	}

	blocks := make([]string, 0, 2)
	raw, err := encode(business)
	if err != nil {
		return nil, "", err
	}
	blocks = append(blocks, raw)

	if len(facts.FAQ) > 0 {
		faq, err := encode(faqPage(facts.FAQ))
		if err != nil {
			return nil, "", err
		}
		blocks = append(blocks, faq)
	}

	return blocks, schemaType, nil
}

// PageGraph renders the page-level block injected at assembly time.
func PageGraph(pageType string, page PageRef, publisher string) (string, error) {
	if pageType == "" {
		pageType = "WebPage"
	}
	graph := map[string]any{
		"@context": schemaContext,
		"@type":    pageType,
	}
	putString(graph, "name", page.Name)
	putString(graph, "url", page.URL)
	putString(graph, "description", page.Description)
	if publisher != "" {
		graph["publisher"] = map[string]any{"@type": "Organization", "name": publisher}
		graph["isPartOf"] = map[string]any{"@type": "WebSite", "name": publisher}
	}
	return encode(graph)
}

func faqPage(items []QA) map[string]any {
	entities := make([]map[string]any, 0, len(items))
	for _, qa := range items {
		if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Answer) == "" {
			continue
		}
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  qa.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  qa.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   schemaContext,
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

func putString(m map[string]any, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		m[key] = v
	}
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json-ld: %w", err)
	}
	// json.Marshal escapes '<', so the block cannot close its <script> early.
	return string(raw), nil
}

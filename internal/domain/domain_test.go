package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"validation", fmt.Errorf("wrap: %w", &ValidationError{Field: "site", Reason: "is required"}), CodeValidation},
		{"conflict", &ConflictError{Key: "a/draft/b.html", ServerVersionTag: "v2"}, CodeConflict},
		{"exhausted", &QualityExhaustedError{Attempts: 3, Threshold: 70}, CodeQualityExhausted},
		{"malformed", &MalformedPayloadError{Reason: "bad json"}, CodeMalformedPayload},
		{"upstream", &UpstreamError{Service: "llm", Err: errors.New("down")}, CodeUpstream},
		{"slot wrapping upstream", &SlotError{Index: 2, Slot: "Footer", Err: &UpstreamError{Service: "llm"}}, CodeUpstream},
		{"page exists", fmt.Errorf("synthesize: %w", ErrPageExists), CodePageExists},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), CodeNotFound},
		{"other", errors.New("boom"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}

func TestArtifactKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme/draft/home.html", ArtifactKey("acme", EnvDraft, "home"))
	assert.Equal(t, "acme/live/about.html", ArtifactKey("acme", EnvLive, "about.html"))
	assert.Equal(t, "acme/_tmp/audit-1.html", TransientKey("acme", "audit-1.html"))
}

func TestBrandContextOverlay(t *testing.T) {
	t.Parallel()

	profile := &IndustryProfile{Name: "plumber", Tone: "direct", Services: []string{"repairs", "boilers"}}
	bc := NewBrandContext("acme", "home", "  Acme Plumbing ", profile, "Family run since 1982.")

	assert.Equal(t, "Acme Plumbing", bc.BusinessName)
	assert.Equal(t, "plumber", bc.Industry)
	assert.Equal(t, "Industry: plumber\nTone: direct\nServices: repairs, boilers\n\nFamily run since 1982.", bc.Text)
	assert.Contains(t, bc.Prompt(), "Business name: Acme Plumbing")

	fallback := NewBrandContext("acme", "home", "", nil, "")
	assert.Equal(t, "acme", fallback.BusinessName)
	assert.Empty(t, fallback.Text)
}

func TestVerdictFeedback(t *testing.T) {
	t.Parallel()

	assert.Empty(t, QualityVerdict{Score: 90}.Feedback())
	assert.True(t, QualityVerdict{Score: 70}.Passes(70))
	assert.False(t, QualityVerdict{Score: 69}.Passes(70))

	fb := QualityVerdict{Score: 40, Issues: []string{"no h1"}, Suggestions: []string{"add a hero"}}.Feedback()
	assert.Contains(t, fb, "scored 40/100")
	assert.Contains(t, fb, "- Issue: no h1")
	assert.Contains(t, fb, "- Suggestion: add a hero")
}

func TestComponentIndexCandidates(t *testing.T) {
	t.Parallel()

	idx := NewComponentIndex([]ReusableComponent{
		{ID: "a", Type: SectionHero},
		{ID: "b", Type: SectionFooter},
		{ID: "c", Type: SectionHero},
		{ID: "d", Type: SectionUnknown},
	})

	heroes := idx.Candidates(SectionHero)
	if assert.Len(t, heroes, 2) {
		assert.Equal(t, "a", heroes[0].ID)
		assert.Equal(t, "c", heroes[1].ID)
	}
	assert.Empty(t, idx.Candidates(SectionPricing))
	assert.Empty(t, idx.Candidates(SectionUnknown))
}

func TestTemplateValidate(t *testing.T) {
	t.Parallel()

	assert.Error(t, TemplateDefinition{Sections: []string{"Hero"}}.Validate())
	assert.Error(t, TemplateDefinition{Name: "Empty"}.Validate())
	assert.NoError(t, TemplateDefinition{Name: "Ok", Sections: []string{"Hero"}}.Validate())
	assert.True(t, TemplateDefinition{Guidelines: []string{"Exactly one H1"}}.HasGuideline("h1"))
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

var slotPattern = regexp.MustCompile(`Write section \d+ of \d+: (\S+)`)

type generatorCall struct {
	Tier   ports.Tier
	Prompt string
}

// fakeGenerator answers adapt calls with the component markup tagged as
// adapted and generate calls with a section named after the slot.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []generatorCall

	fail       map[string]error
	cheapReply func(prompt string) string
	structured func(req ports.TextRequest) (json.RawMessage, error)
}

func (f *fakeGenerator) Generate(_ context.Context, req ports.TextRequest) (string, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	f.mu.Lock()
	f.calls = append(f.calls, generatorCall{Tier: req.Tier, Prompt: prompt})
	f.mu.Unlock()

	if req.Tier == ports.TierCheap {
		if f.cheapReply != nil {
			return f.cheapReply(prompt), nil
		}
		return "```html\n<section data-slot=\"Hero\" data-adapted=\"true\"><h1>Adapted hero</h1><img src=\"hero.jpg\" alt=\"Team\"><a data-cta href=\"#contact\">Call</a></section>\n```", nil
	}

	m := slotPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", fmt.Errorf("no slot in prompt")
	}
	slot := m[1]
	if err, ok := f.fail[slot]; ok {
		return "", err
	}
	return fmt.Sprintf(`<section data-slot="%s"><h2>%s</h2><img src="%s.jpg" alt="%s"><a data-cta href="#contact">Book</a></section>`, slot, slot, slot, slot), nil
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, req ports.TextRequest, tool ports.ToolSpec) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generatorCall{Tier: req.Tier, Prompt: req.Messages[0].Content})
	f.mu.Unlock()
	if tool.Name != EnhanceTool.Name {
		return nil, fmt.Errorf("unexpected tool %s", tool.Name)
	}
	return f.structured(req)
}

func (f *fakeGenerator) snapshot() []generatorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generatorCall(nil), f.calls...)
}

func (f *fakeGenerator) count(tier ports.Tier) int {
	n := 0
	for _, c := range f.snapshot() {
		if c.Tier == tier {
			n++
		}
	}
	return n
}

type fakeCatalog struct {
	components []domain.ReusableComponent
	err        error
	calls      int
}

func (c *fakeCatalog) ListComponents(context.Context) ([]domain.ReusableComponent, error) {
	c.calls++
	return c.components, c.err
}

type scriptedScorer struct {
	mu     sync.Mutex
	scores []int
	calls  int
}

func (s *scriptedScorer) Score(context.Context, string, string, domain.TemplateDefinition) (domain.QualityVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := s.scores[min(s.calls, len(s.scores)-1)]
	s.calls++
	return domain.QualityVerdict{
		Score:       score,
		Issues:      []string{"CTA appears once"},
		Suggestions: []string{"Repeat the CTA"},
	}, nil
}

type storedArtifact struct {
	body []byte
	tag  string
	at   time.Time
}

// fakeStore issues sequential tags v1, v2, ... and enforces conditional writes.
type fakeStore struct {
	mu    sync.Mutex
	items map[string]storedArtifact
	seq   int
	puts  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]storedArtifact{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (domain.PageArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[key]
	if !ok {
		return domain.PageArtifact{}, domain.ErrNotFound
	}
	return domain.PageArtifact{Key: key, Body: a.body, VersionTag: a.tag, ContentType: domain.HTMLContentType, UpdatedAt: a.at}, nil
}

func (s *fakeStore) Head(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return a.tag, nil
}

func (s *fakeStore) Put(_ context.Context, key string, body []byte, _ string, opts domain.PutOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, exists := s.items[key]
	if opts.IfNoneMatch && exists {
		return "", domain.ErrPageExists
	}
	if opts.IfMatch != "" && cur.tag != opts.IfMatch {
		return "", &domain.ConflictError{Key: key, ExpectedTag: opts.IfMatch, ServerVersionTag: cur.tag}
	}
	s.seq++
	s.puts++
	tag := fmt.Sprintf("v%d", s.seq)
	s.items[key] = storedArtifact{body: append([]byte(nil), body...), tag: tag, at: time.Now()}
	return tag, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]domain.ArtifactInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ArtifactInfo
	for k, a := range s.items {
		if strings.HasPrefix(k, prefix) {
			out = append(out, domain.ArtifactInfo{Key: k, Size: int64(len(a.body)), VersionTag: a.tag, Timestamp: a.at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *fakeStore) body(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.items[key].body)
}

type recordingNotifier struct {
	mu    sync.Mutex
	saved []string
}

func (n *recordingNotifier) NotifySaved(_ context.Context, site, page, tag string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, site+"/"+page+"@"+tag)
	return nil
}

package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteForge/internal/domain"
	"SiteForge/internal/infrastructure/storage"
	"SiteForge/internal/logging"
)

func TestScorerAuditsTransientCopyAndCleansUp(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	var (
		mu       sync.Mutex
		audited  string
		existing bool
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audit" || r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		key := strings.TrimPrefix(body.URL, "https://cdn.example.org/")
		_, err := store.Head(r.Context(), key)

		mu.Lock()
		audited, existing = body.URL, err == nil
		mu.Unlock()

		_ = json.NewEncoder(w).Encode(domain.QualityVerdict{Score: 82, Issues: []string{"LCP is slow"}})
	}))
	defer srv.Close()

	scorer := NewScorer(store, NewClient(srv.URL, "secret", srv.Client()), "https://cdn.example.org/", logging.Discard())

	verdict, err := scorer.Score(context.Background(), "acme", "<html>page</html>", domain.TemplateDefinition{})
	require.NoError(t, err)
	assert.Equal(t, 82, verdict.Score)
	assert.Equal(t, []string{"LCP is slow"}, verdict.Issues)

	mu.Lock()
	assert.True(t, strings.HasPrefix(audited, "https://cdn.example.org/acme/_tmp/audit-"), audited)
	assert.True(t, existing, "copy must exist while audited")
	mu.Unlock()

	scorer.Wait()
	left, err := store.List(context.Background(), "acme/")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestScorerCleansUpOnFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "crawler down", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	scorer := NewScorer(store, NewClient(srv.URL, "", srv.Client()), "https://cdn.example.org", logging.Discard())

	_, err := scorer.Score(context.Background(), "acme", "<html></html>", domain.TemplateDefinition{})
	require.Error(t, err)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)

	scorer.Wait()
	left, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestClientRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"score":140}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", srv.Client()).Audit(context.Background(), "https://example.org")
	assert.Equal(t, domain.CodeMalformedPayload, domain.CodeOf(err))
}

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

const cleanupTimeout = 10 * time.Second

// Scorer grades a document by publishing a transient copy, pointing the
// audit service at it and removing the copy afterwards.
type Scorer struct {
	store         ports.ArtifactStore
	auditor       ports.Auditor
	publicBaseURL string
	logger        *slog.Logger

	cleanup sync.WaitGroup
}

var _ ports.Scorer = (*Scorer)(nil)

// NewScorer builds a remote scorer. publicBaseURL is the origin the store's
// keys are served from.
func NewScorer(store ports.ArtifactStore, auditor ports.Auditor, publicBaseURL string, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		store:         store,
		auditor:       auditor,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Score implements ports.Scorer. The transient copy is deleted in the
// background on every path once the verdict is known.
func (s *Scorer) Score(ctx context.Context, site, document string, _ domain.TemplateDefinition) (domain.QualityVerdict, error) {
	key := domain.TransientKey(site, "audit-"+uuid.NewString()+".html")

	if _, err := s.store.Put(ctx, key, []byte(document), domain.HTMLContentType, domain.PutOptions{}); err != nil {
		return domain.QualityVerdict{}, fmt.Errorf("write audit copy: %w", err)
	}
	defer s.discard(key)

	verdict, err := s.auditor.Audit(ctx, s.publicBaseURL+"/"+key)
	if err != nil {
		return domain.QualityVerdict{}, fmt.Errorf("audit %s: %w", key, err)
	}
	return verdict, nil
}

// Wait blocks until every pending cleanup has finished.
func (s *Scorer) Wait() {
	s.cleanup.Wait()
}

func (s *Scorer) discard(key string) {
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("delete audit copy", "key", key, "error", err)
		}
	}()
}

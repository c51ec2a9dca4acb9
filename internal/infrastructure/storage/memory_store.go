package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

// MemoryStore keeps artifacts in process memory. It backs the "memory"
// storage driver used for local development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]domain.PageArtifact
	now   func() time.Time
}

var _ ports.ArtifactStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]domain.PageArtifact{}, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (domain.PageArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	art, ok := m.items[key]
	if !ok {
		return domain.PageArtifact{}, domain.ErrNotFound
	}
	art.Body = append([]byte(nil), art.Body...)
	return art, nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	art, ok := m.items[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return art.VersionTag, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string, opts domain.PutOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.items[key]
	if opts.IfNoneMatch && exists {
		return "", fmt.Errorf("put %s: %w", key, domain.ErrPageExists)
	}
	if opts.IfMatch != "" && (!exists || current.VersionTag != opts.IfMatch) {
		return "", &domain.ConflictError{Key: key, ExpectedTag: opts.IfMatch, ServerVersionTag: current.VersionTag}
	}

	tag := contentTag(body)
	m.items[key] = domain.PageArtifact{
		Key:         key,
		Body:        append([]byte(nil), body...),
		VersionTag:  tag,
		ContentType: contentType,
		UpdatedAt:   m.now().UTC(),
	}
	return tag, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]domain.ArtifactInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ArtifactInfo
	for key, art := range m.items {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, domain.ArtifactInfo{
			Key:        key,
			Size:       int64(len(art.Body)),
			VersionTag: art.VersionTag,
			Timestamp:  art.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

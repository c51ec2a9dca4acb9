package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

// JetStreamStore keeps artifacts in a JetStream key-value bucket. The KV
// revision is the version tag, so conditional writes map onto kv.Update and
// kv.Create, which the server checks atomically.
type JetStreamStore struct {
	kv jetstream.KeyValue
}

var _ ports.ArtifactStore = (*JetStreamStore)(nil)

// NewJetStreamStore creates (or reuses) the bucket.
func NewJetStreamStore(ctx context.Context, js jetstream.JetStream, bucket string) (*JetStreamStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "SiteForge page artifacts",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("open kv bucket %s: %w", bucket, err)
	}
	return &JetStreamStore{kv: kv}, nil
}

func (j *JetStreamStore) get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	entry, err := j.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry, nil
}

func (j *JetStreamStore) Get(ctx context.Context, key string) (domain.PageArtifact, error) {
	entry, err := j.get(ctx, key)
	if err != nil {
		return domain.PageArtifact{}, err
	}
	return domain.PageArtifact{
		Key:         key,
		Body:        entry.Value(),
		VersionTag:  revisionTag(entry.Revision()),
		ContentType: domain.HTMLContentType,
		UpdatedAt:   entry.Created().UTC(),
	}, nil
}

func (j *JetStreamStore) Head(ctx context.Context, key string) (string, error) {
	entry, err := j.get(ctx, key)
	if err != nil {
		return "", err
	}
	return revisionTag(entry.Revision()), nil
}

// Put ignores contentType: the bucket only holds HTML.
func (j *JetStreamStore) Put(ctx context.Context, key string, body []byte, _ string, opts domain.PutOptions) (string, error) {
	var (
		rev uint64
		err error
	)
	switch {
	case opts.IfMatch != "":
		expected, perr := strconv.ParseUint(opts.IfMatch, 10, 64)
		if perr != nil {
			return "", j.conflict(ctx, key, opts)
		}
		rev, err = j.kv.Update(ctx, key, body, expected)
	case opts.IfNoneMatch:
		rev, err = j.kv.Create(ctx, key, body)
	default:
		rev, err = j.kv.Put(ctx, key, body)
	}

	if err != nil {
		if opts.IfMatch != "" || opts.IfNoneMatch {
			// A failed conditional write is a conflict whenever the stored
			// revision no longer matches what the caller expected.
			if cerr := j.conflict(ctx, key, opts); cerr != nil {
				return "", cerr
			}
		}
		return "", fmt.Errorf("kv put %s: %w", key, err)
	}
	return revisionTag(rev), nil
}

func (j *JetStreamStore) conflict(ctx context.Context, key string, opts domain.PutOptions) error {
	current, err := j.Head(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		current = ""
	case err != nil:
		return err
	}
	if opts.IfNoneMatch {
		if current != "" {
			return fmt.Errorf("put %s: %w", key, domain.ErrPageExists)
		}
		return nil
	}
	if current != opts.IfMatch {
		return &domain.ConflictError{Key: key, ExpectedTag: opts.IfMatch, ServerVersionTag: current}
	}
	return nil
}

func (j *JetStreamStore) Delete(ctx context.Context, key string) error {
	if err := j.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (j *JetStreamStore) List(ctx context.Context, prefix string) ([]domain.ArtifactInfo, error) {
	lister, err := j.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv list: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var out []domain.ArtifactInfo
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := j.get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ArtifactInfo{
			Key:        key,
			Size:       int64(len(entry.Value())),
			VersionTag: revisionTag(entry.Revision()),
			Timestamp:  entry.Created().UTC(),
		})
	}
	return out, nil
}

func revisionTag(rev uint64) string {
	return strconv.FormatUint(rev, 10)
}

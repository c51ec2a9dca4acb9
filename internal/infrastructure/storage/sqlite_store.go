package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"SiteForge/internal/domain"
	"SiteForge/internal/ports"
)

const artifactsTable = "artifacts"

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key          TEXT PRIMARY KEY,
	body         BLOB NOT NULL,
	content_type TEXT NOT NULL,
	etag         TEXT NOT NULL,
	size         INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
)`

// SQLStore persists page artifacts in SQLite. Conditional writes are single
// statements, so the check and the write cannot interleave with another writer.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ArtifactStore = (*SQLStore)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serialises writers anyway and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// NewSQLStore wires a sql.DB prepared by OpenSQLite.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Get returns the stored artifact or domain.ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, key string) (domain.PageArtifact, error) {
	query, args, err := sq.Select("body", "content_type", "etag", "updated_at").
		From(artifactsTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return domain.PageArtifact{}, fmt.Errorf("build get: %w", err)
	}

	var (
		art     = domain.PageArtifact{Key: key}
		updated int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&art.Body, &art.ContentType, &art.VersionTag, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PageArtifact{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PageArtifact{}, fmt.Errorf("get %s: %w", key, err)
	}
	art.UpdatedAt = time.Unix(0, updated).UTC()
	return art, nil
}

// Head returns the current version tag or domain.ErrNotFound.
func (s *SQLStore) Head(ctx context.Context, key string) (string, error) {
	query, args, err := sq.Select("etag").From(artifactsTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build head: %w", err)
	}

	var tag string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&tag)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	return tag, nil
}

// Put writes the body and returns its new version tag.
func (s *SQLStore) Put(ctx context.Context, key string, body []byte, contentType string, opts domain.PutOptions) (string, error) {
	tag := contentTag(body)
	now := s.now().UnixNano()

	var builder interface {
		ToSql() (string, []interface{}, error)
	}
	switch {
	case opts.IfMatch != "":
		builder = sq.Update(artifactsTable).
			SetMap(map[string]interface{}{
				"body":         body,
				"content_type": contentType,
				"etag":         tag,
				"size":         len(body),
				"updated_at":   now,
			}).
			Where(sq.Eq{"key": key, "etag": opts.IfMatch})
	case opts.IfNoneMatch:
		builder = sq.Insert(artifactsTable).
			Options("OR IGNORE").
			Columns("key", "body", "content_type", "etag", "size", "updated_at").
			Values(key, body, contentType, tag, len(body), now)
	default:
		builder = sq.Insert(artifactsTable).
			Columns("key", "body", "content_type", "etag", "size", "updated_at").
			Values(key, body, contentType, tag, len(body), now).
			Suffix(`ON CONFLICT(key) DO UPDATE SET body = excluded.body, content_type = excluded.content_type,
				etag = excluded.etag, size = excluded.size, updated_at = excluded.updated_at`)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", fmt.Errorf("build put: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	if opts.IfMatch != "" || opts.IfNoneMatch {
		affected, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("put %s: %w", key, err)
		}
		if affected == 0 {
			return "", s.conflict(ctx, key, opts)
		}
	}
	return tag, nil
}

func (s *SQLStore) conflict(ctx context.Context, key string, opts domain.PutOptions) error {
	current, err := s.Head(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if opts.IfNoneMatch {
		return fmt.Errorf("put %s: %w", key, domain.ErrPageExists)
	}
	return &domain.ConflictError{Key: key, ExpectedTag: opts.IfMatch, ServerVersionTag: current}
}

// Delete removes the key; deleting an absent key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete(artifactsTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns every artifact whose key starts with prefix, ordered by key.
func (s *SQLStore) List(ctx context.Context, prefix string) ([]domain.ArtifactInfo, error) {
	query, args, err := sq.Select("key", "size", "etag", "updated_at").
		From(artifactsTable).
		Where(sq.GtOrEq{"key": prefix}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()

	var out []domain.ArtifactInfo
	for rows.Next() {
		var (
			info    domain.ArtifactInfo
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &info.VersionTag, &updated); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if !strings.HasPrefix(info.Key, prefix) {
			break
		}
		info.Timestamp = time.Unix(0, updated).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

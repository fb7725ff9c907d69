package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Store)(nil)

const (
	fileName = "index.db"

	// dsnOptions enables WAL so a watcher can write while a question is answered.
	dsnOptions = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
)

// Store is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates index.db in dataDir, which defaults to
// ~/.taxadvisor/data, and brings its schema up to date.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		dataDir = filepath.Join(home, ".taxadvisor", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrVectorStoreUnavailable, dataDir, err)
	}

	path := filepath.Join(dataDir, fileName)
	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrVectorStoreUnavailable, path, err)
	}
	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", domain.ErrVectorStoreUnavailable, path, err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Name() string {
	return domain.VectorBackendSQLite.String()
}

const upsertEntry = `
INSERT INTO entries (key, source, chunk_index, text, vector, content_hash)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    source       = excluded.source,
    chunk_index  = excluded.chunk_index,
    text         = excluded.text,
    vector       = excluded.vector,
    content_hash = excluded.content_hash`

// Upsert writes the batch atomically.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertEntry)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			_, err := stmt.ExecContext(ctx, e.Key, e.Source, e.ChunkIndex, e.Text, encodeVector(e.Vector), e.ContentHash)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

// Nearest streams every row through a ranker; only k entries are held at once.
func (s *Store) Nearest(ctx context.Context, vector []float32, k int) ([]domain.ScoredEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, source, chunk_index, text, vector, content_hash FROM entries")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	ranker := vecmath.NewRanker(vector, k)
	for rows.Next() {
		var (
			e    domain.IndexEntry
			blob []byte
		)
		if err := rows.Scan(&e.Key, &e.Source, &e.ChunkIndex, &e.Text, &blob, &e.ContentHash); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		if e.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %w", domain.ErrVectorStoreUnavailable, e.Key, err)
		}
		ranker.Add(e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	return ranker.Result(), nil
}

func (s *Store) DeleteSource(ctx context.Context, source string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE source = ?", source); err != nil {
		return fmt.Errorf("delete %s: %w", source, err)
	}
	return nil
}

// Sources reports one row per file. Chunks of a file share a content hash,
// so MAX picks that hash.
func (s *Store) Sources(ctx context.Context) (map[string]domain.SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, MAX(content_hash), COUNT(*) FROM entries GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	out := map[string]domain.SourceInfo{}
	for rows.Next() {
		var info domain.SourceInfo
		if err := rows.Scan(&info.Source, &info.ContentHash, &info.Chunks); err != nil {
			return nil, err
		}
		out[info.Source] = info
	}
	return out, rows.Err()
}

// Metadata returns domain.ErrNotFound until SetMetadata has run.
func (s *Store) Metadata(ctx context.Context) (*domain.IndexMetadata, error) {
	var meta domain.IndexMetadata
	err := s.db.QueryRowContext(ctx,
		"SELECT embedding_model, dimensions, updated_at FROM index_meta WHERE id = 1",
	).Scan(&meta.EmbeddingModel, &meta.Dimensions, &meta.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: read metadata: %w", domain.ErrVectorStoreUnavailable, err)
	}
	return &meta, nil
}

// SetMetadata stamps the current time when meta.UpdatedAt is zero.
func (s *Store) SetMetadata(ctx context.Context, meta domain.IndexMetadata) error {
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO index_meta (id, embedding_model, dimensions, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    embedding_model = excluded.embedding_model,
    dimensions      = excluded.dimensions,
    updated_at      = excluded.updated_at`,
		meta.EmbeddingModel, meta.Dimensions, meta.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Reset empties both tables in one transaction.
func (s *Store) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"entries", "index_meta"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

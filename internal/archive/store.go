// Package archive keeps snapshots of language records in PostgreSQL.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"langprops/internal/propset"
	"langprops/internal/worker"
)

const schema = `
CREATE TABLE IF NOT EXISTS language_records (
	path            TEXT        NOT NULL,
	key             TEXT        NOT NULL,
	comment         TEXT        NOT NULL DEFAULT '',
	original_index  INTEGER     NOT NULL DEFAULT 0,
	language_values JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (path, key)
)`

const upsertRecord = `
INSERT INTO language_records (path, key, comment, original_index, language_values, updated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, now())
ON CONFLICT (path, key) DO UPDATE SET
	comment = EXCLUDED.comment,
	original_index = EXCLUDED.original_index,
	language_values = EXCLUDED.language_values,
	updated_at = now()`

const selectRecords = `
SELECT path, key, comment, original_index, language_values
FROM language_records
WHERE path LIKE $1 ESCAPE '\'
ORDER BY path, original_index, key`

const batchSize = 500

// Store persists language records keyed by (path, key).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new record store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the records table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create language_records table: %w", err)
	}
	return nil
}

// Save upserts records in a single transaction. Existing rows for the
// same path and key are replaced.
func (s *Store) Save(ctx context.Context, records []*propset.Record) (int, error) {
	for _, r := range records {
		if strings.TrimSpace(r.Path) == "" {
			return 0, &propset.ConfigurationError{Reason: fmt.Sprintf("record %q has no set path", r.Key)}
		}
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i, chunk := range worker.Batch(records, batchSize) {
			batch := &pgx.Batch{}
			for _, r := range chunk {
				batch.Queue(upsertRecord, r.Path, r.Key, r.Comment, r.OriginalIndex, snapshotValues(r))
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("upsert batch %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int("records", len(records)).Msg("Archived language records")
	return len(records), nil
}

// Load returns every archived record whose path starts with pathPrefix,
// ordered by path and original index.
func (s *Store) Load(ctx context.Context, pathPrefix string) ([]*propset.Record, error) {
	rows, err := s.pool.Query(ctx, selectRecords, likePrefix(pathPrefix))
	if err != nil {
		return nil, fmt.Errorf("query language records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*propset.Record, error) {
		var (
			path, key, comment string
			index              int
			values             map[string]*string
		)
		if err := row.Scan(&path, &key, &comment, &index, &values); err != nil {
			return nil, err
		}
		r := propset.NewRecord(path, key)
		r.Comment = comment
		r.OriginalIndex = index
		applyValues(r, values)
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan language records: %w", err)
	}

	log.Debug().Str("prefix", pathPrefix).Int("records", len(records)).Msg("Loaded archived records")
	return records, nil
}

// snapshotValues returns the record's values; signs without a value map to nil.
func snapshotValues(r *propset.Record) map[string]*string {
	values := make(map[string]*string)
	for _, sign := range r.Signs() {
		if v, ok := r.Value(sign); ok {
			values[sign] = &v
		} else {
			values[sign] = nil
		}
	}
	return values
}

func applyValues(r *propset.Record, values map[string]*string) {
	for sign, v := range values {
		if v == nil {
			r.SetValue(sign, "")
			continue
		}
		r.SetValue(sign, *v)
	}
}

// likePrefix builds a LIKE pattern matching every path starting with prefix.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lossrange/lossrange/internal/database"
)

// Timestamps are unix seconds so expiry comparisons stay integer-only.
const resultsSchema = `
CREATE TABLE IF NOT EXISTS simulations (
    cache_key  TEXT PRIMARY KEY,
    run_id     TEXT NOT NULL,
    tree_name  TEXT NOT NULL,
    tree_hash  TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL,
    payload    BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_simulations_tree_name ON simulations(tree_name);
CREATE INDEX IF NOT EXISTS idx_simulations_expires_at ON simulations(expires_at);
`

// Entry is one cached simulation run.
type Entry struct {
	CacheKey  string
	RunID     string
	TreeName  string
	TreeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Payload   []byte
}

// Store persists simulation results in the results database.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// NewStore wraps an open results database.
func NewStore(db *database.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "results").Logger(),
	}
}

// Open opens (or creates) the results database at path and applies the
// schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileCache,
		Name:    "results",
	})
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	if err := db.ApplySchema(resultsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying results schema: %w", err)
	}
	return NewStore(db, log), nil
}

// Put inserts or replaces the cached run for the entry's cache key.
func (s *Store) Put(ctx context.Context, entry *Entry) error {
	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM simulations WHERE cache_key = ?`, entry.CacheKey); err != nil {
			return fmt.Errorf("failed to clear previous run: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO simulations (cache_key, run_id, tree_name, tree_hash, created_at, expires_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			entry.CacheKey,
			entry.RunID,
			entry.TreeName,
			entry.TreeHash,
			entry.CreatedAt.Unix(),
			entry.ExpiresAt.Unix(),
			entry.Payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("cache_key", entry.CacheKey).
		Str("run_id", entry.RunID).
		Str("tree", entry.TreeName).
		Msg("cached simulation result")
	return nil
}

// Get returns the cached entry for a key. Expired rows count as misses and
// are deleted on the way out.
func (s *Store) Get(ctx context.Context, cacheKey string) (*Entry, bool, error) {
	query := `
		SELECT cache_key, run_id, tree_name, tree_hash, created_at, expires_at, payload
		FROM simulations
		WHERE cache_key = ?
	`

	var entry Entry
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx, query, cacheKey).Scan(
		&entry.CacheKey,
		&entry.RunID,
		&entry.TreeName,
		&entry.TreeHash,
		&createdAt,
		&expiresAt,
		&entry.Payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached run: %w", err)
	}

	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	if !entry.ExpiresAt.After(time.Now()) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE cache_key = ?`, cacheKey); err != nil {
			s.log.Warn().Err(err).Str("cache_key", cacheKey).Msg("failed to delete expired run")
		}
		return nil, false, nil
	}

	return &entry, true, nil
}

// InvalidateTreeName deletes every cached run of the named tree, returning
// the number of rows removed. The name is the axis the file watcher knows:
// edited files produce new tree hashes, so stale rows can only be found by
// name.
func (s *Store) InvalidateTreeName(ctx context.Context, treeName string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE tree_name = ?`, treeName)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate tree %q: %w", treeName, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count invalidated rows: %w", err)
	}

	if removed > 0 {
		s.log.Info().Str("tree", treeName).Int64("rows", removed).Msg("invalidated cached runs")
	}
	return removed, nil
}

// DeleteExpired purges rows past their expiry, returning the count removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired runs: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired rows: %w", err)
	}
	return removed, nil
}

// Count returns the number of cached runs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached runs: %w", err)
	}
	return count, nil
}

// Checkpoint truncates the WAL after maintenance deletes.
func (s *Store) Checkpoint() error {
	return s.db.WALCheckpoint("TRUNCATE")
}

// HealthCheck verifies the underlying database connection and integrity.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

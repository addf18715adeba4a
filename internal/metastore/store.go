package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"

	"github.com/crmtools/dvenv/internal/fileutil"
	"github.com/crmtools/dvenv/internal/sentinel"
)

// ErrNotFound is returned by Get when no metadata exists for the entity.
const ErrNotFound = sentinel.Error("entity metadata not found")

// ErrSearchDisabled is returned by Search when the store was opened without
// a full-text index.
const ErrSearchDisabled = sentinel.Error("full-text search index is disabled")

// dbFileName is the database file created inside the cache directory.
const dbFileName = "metadata.db"

// Store is an on-disk metadata cache for one environment. It is safe for
// concurrent use: SQLite serializes writers and the WAL journal keeps
// readers unblocked.
type Store struct {
	db  *sql.DB
	fts bool
}

// Open creates or opens the metadata store inside dir, creating the
// directory if needed. Schema creation is serialized across processes by a
// file lock (see ensureSchema), since several processes may share one cache
// directory for the same backend URL.
//
// When fts is true an FTS5 index over display names and descriptions is
// maintained alongside the entity table; Search requires it.
func Open(ctx context.Context, dir string, fts bool) (*Store, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFileName)

	// WAL for concurrent readers, a generous busy timeout for concurrent
	// processes sharing the cache directory, and NORMAL synchronous mode —
	// this is a cache, crash durability is irrelevant and NORMAL reduces
	// fsync calls on commit.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=synchronous(NORMAL)",
		dbPath,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	s := &Store{db: db, fts: fts}
	if err := s.ensureSchema(ctx, dir); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates the tables if they do not exist yet, holding the
// cross-process file lock so two processes opening the same cache directory
// cannot interleave DDL.
func (s *Store) ensureSchema(ctx context.Context, dir string) error {
	lock, err := acquireFileLock(ctx, filepath.Join(dir, "metadata.lock"))
	if err != nil {
		return err
	}
	defer releaseFileLock(lock)

	const entities = `CREATE TABLE IF NOT EXISTS entities (
		logical_name TEXT PRIMARY KEY,
		payload      BLOB NOT NULL,
		version      TEXT NOT NULL,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, entities); err != nil {
		return fmt.Errorf("create entities table: %w", err)
	}

	if !s.fts {
		return nil
	}

	const ftsIndex = `CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts
		USING fts5(logical_name, display_name, description)`
	if _, err := s.db.ExecContext(ctx, ftsIndex); err != nil {
		return fmt.Errorf("create fts index: %w", err)
	}
	return nil
}

// Put stores (or replaces) the metadata payload for an entity. displayName
// and description feed the full-text index and are ignored when the index
// is disabled.
func (s *Store) Put(ctx context.Context, logicalName string, payload []byte, version, displayName, description string) error {
	const upsert = `INSERT INTO entities (logical_name, payload, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(logical_name) DO UPDATE SET
			payload = excluded.payload,
			version = excluded.version,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, upsert,
		logicalName, payload, version, time.Now().Unix()); err != nil {
		return fmt.Errorf("store metadata for %q: %w", logicalName, err)
	}

	if !s.fts {
		return nil
	}

	// FTS5 has no upsert; delete-then-insert keeps one row per entity.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM entities_fts WHERE logical_name = ?`, logicalName); err != nil {
		return fmt.Errorf("refresh fts row for %q: %w", logicalName, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO entities_fts (logical_name, display_name, description) VALUES (?, ?, ?)`,
		logicalName, displayName, description); err != nil {
		return fmt.Errorf("index metadata for %q: %w", logicalName, err)
	}
	return nil
}

// Get returns the cached payload and version for an entity.
// Returns ErrNotFound when the entity has never been cached.
func (s *Store) Get(ctx context.Context, logicalName string) ([]byte, string, error) {
	var (
		payload []byte
		version string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, version FROM entities WHERE logical_name = ?`, logicalName).
		Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %q", ErrNotFound, logicalName)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load metadata for %q: %w", logicalName, err)
	}
	return payload, version, nil
}

// Search returns the logical names of entities whose indexed text matches
// the FTS5 query, best match first. Returns ErrSearchDisabled when the
// store was opened without the index.
func (s *Store) Search(ctx context.Context, query string) ([]string, error) {
	if !s.fts {
		return nil, ErrSearchDisabled
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT logical_name FROM entities_fts WHERE entities_fts MATCH ? ORDER BY rank`, query)
	if err != nil {
		return nil, fmt.Errorf("search metadata: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return names, nil
}

// Purge removes every cached row, leaving the schema in place.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("purge metadata: %w", err)
	}
	if s.fts {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM entities_fts`); err != nil {
			return fmt.Errorf("purge fts index: %w", err)
		}
	}
	return nil
}

// Close releases the database handle. Safe to call twice.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("close metadata store: %w", err)
	}
	return nil
}

// Package sqlite provides a SQLite-backed model store that snapshots every
// committed document state into a single table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.ModelStore = (*Store)(nil)

const defaultPath = "diagramcore.db"

// Store serves reads from memory and writes a JSON snapshot of the document
// to SQLite before each commit becomes visible.
type Store struct {
	*memory.Store
	db       *sql.DB
	mu       sync.Mutex
	path     string
	document string
}

// NewStore opens (or creates) the database at path and hydrates document
// from any existing snapshot.
func NewStore(ctx context.Context, path, document string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if document == "" {
		document = memory.DefaultDocument
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS diagram_state (
		document TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path, document: document}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM diagram_state WHERE document = ?`, s.document).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	snap, err := memory.DecodeSnapshot(payload)
	if err != nil {
		return fmt.Errorf("document %s: %w", s.document, err)
	}
	s.ImportState(snap)
	return nil
}

// SetState persists the snapshot, then publishes it to readers. A failed
// write leaves the previous state in place.
func (s *Store) SetState(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.Stage(s.document, state)
	if err := s.persist(ctx, snap); err != nil {
		return err
	}
	s.ImportState(snap)
	return nil
}

func (s *Store) persist(ctx context.Context, snap memory.Snapshot) (retErr error) {
	data, err := memory.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO diagram_state(document,version,payload) VALUES(?,?,?) ON CONFLICT(document) DO UPDATE SET version=excluded.version, payload=excluded.payload`, snap.Document, int64(snap.Version), data); err != nil {
		return fmt.Errorf("upsert %s: %w", snap.Document, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Document returns the document id this store persists.
func (s *Store) Document() string { return s.document }

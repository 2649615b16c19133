// Package postgres provides a Postgres-backed model store that keeps the
// committed document in memory and snapshots it to a JSONB row per document.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.ModelStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/diagramcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db       *sql.DB
	mu       sync.Mutex
	document string
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates document
// from any existing snapshot.
func NewStore(ctx context.Context, dsn, document string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if document == "" {
		document = memory.DefaultDocument
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	snap, ok, err := loadSnapshot(ctx, db, document)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if ok {
		mem.ImportState(snap)
	}
	return &Store{Store: mem, db: db, document: document}, nil
}

// SetState writes the snapshot and then publishes it to readers.
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

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Document returns the document id this store persists.
func (s *Store) Document() string { return s.document }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS diagram_state (
		document TEXT PRIMARY KEY,
		version BIGINT NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB, document string) (memory.Snapshot, bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT document, payload FROM diagram_state WHERE document = $1`, document)
	if err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		snap  memory.Snapshot
		found bool
	)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return memory.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
		}
		if id != document || len(payload) == 0 {
			continue
		}
		snap, err = memory.DecodeSnapshot(payload)
		if err != nil {
			return memory.Snapshot{}, false, fmt.Errorf("document %s: %w", document, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	return snap, found, nil
}

func (s *Store) persist(ctx context.Context, snap memory.Snapshot) error {
	data, err := memory.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO diagram_state(document,version,payload) VALUES($1,$2,$3) ON CONFLICT(document) DO UPDATE SET version=EXCLUDED.version, payload=EXCLUDED.payload`, snap.Document, int64(snap.Version), data); err != nil {
		return fmt.Errorf("upsert %s: %w", snap.Document, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Package memory provides an in-process implementation of the diagram model
// store used by default, in tests, and as the cache behind the snapshotting
// backends.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"diagramcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain model store.
var _ domain.ModelStore = (*Store)(nil)

// DefaultDocument names the document when a backend is opened without one.
const DefaultDocument = "default"

// Snapshot is the persisted envelope of one document state.
type Snapshot struct {
	Document string       `json:"document"`
	Version  uint64       `json:"version"`
	SavedAt  time.Time    `json:"saved_at"`
	State    domain.State `json:"state"`
}

// EncodeSnapshot renders snap as JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.Document, err)
	}
	return data, nil
}

// DecodeSnapshot parses a JSON snapshot. Missing node and edge arrays are
// normalized to empty slices.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.State.Nodes == nil {
		snap.State.Nodes = []domain.Node{}
	}
	if snap.State.Edges == nil {
		snap.State.Edges = []domain.Edge{}
	}
	return snap, nil
}

// Store keeps the committed state in memory. Reads and writes clone so
// callers never share containers with the store.
type Store struct {
	mu      sync.RWMutex
	state   domain.State
	version uint64
	nowFn   func() time.Time
}

// NewStore returns a store holding a copy of initial, or an empty diagram.
func NewStore(initial ...domain.State) *Store {
	s := &Store{
		state: domain.State{Nodes: []domain.Node{}, Edges: []domain.Edge{}},
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	if len(initial) > 0 {
		s.state = initial[0].Clone()
	}
	return s
}

// GetState implements domain.ModelStore.
func (s *Store) GetState(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), nil
}

// SetState implements domain.ModelStore.
func (s *Store) SetState(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.version++
	return nil
}

// Version counts committed SetState calls, starting from the imported
// snapshot's version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ExportState clones the current state into a snapshot for document.
func (s *Store) ExportState(document string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Document: document,
		Version:  s.version,
		SavedAt:  s.nowFn(),
		State:    s.state.Clone(),
	}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snap.State.Clone()
	if s.state.Nodes == nil {
		s.state.Nodes = []domain.Node{}
	}
	if s.state.Edges == nil {
		s.state.Edges = []domain.Edge{}
	}
	s.version = snap.Version
}

// Stage returns the snapshot that SetState(state) would produce without
// applying it. Persistent backends write it first and commit to memory only
// once the write succeeded.
func (s *Store) Stage(document string, state domain.State) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Document: document,
		Version:  s.version + 1,
		SavedAt:  s.nowFn(),
		State:    state.Clone(),
	}
}

// SetNowFuncForTesting overrides the clock used for snapshot timestamps.
func (s *Store) SetNowFuncForTesting(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

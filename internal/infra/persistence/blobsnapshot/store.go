// Package blobsnapshot provides a model store that writes every committed
// document state as an immutable, sequence-numbered JSON blob and prunes old
// snapshots beyond a retention count.
package blobsnapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"diagramcore/internal/blob"
	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/pkg/domain"
)

var _ domain.ModelStore = (*Store)(nil)

// ErrConflict reports that the next snapshot key was already written by
// another process.
var ErrConflict = errors.New("snapshot sequence conflict")

const contentType = "application/json"

// Store serves reads from memory; each SetState writes
// documents/<doc>/snapshots/<version>.json before becoming visible.
type Store struct {
	*memory.Store
	blobs    blob.Store
	document string
	retain   int

	mu       sync.Mutex
	pruneErr error
}

// NewStore hydrates document from its newest snapshot in blobs. retain <= 0
// keeps every snapshot.
func NewStore(ctx context.Context, blobs blob.Store, document string, retain int) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blob store required")
	}
	if document == "" {
		document = memory.DefaultDocument
	}
	if strings.Contains(document, "/") {
		return nil, fmt.Errorf("invalid document id %q", document)
	}
	s := &Store{Store: memory.NewStore(), blobs: blobs, document: document, retain: retain}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) prefix() string { return "documents/" + s.document + "/snapshots/" }

// Key returns the blob key for version. Versions are zero padded so key order
// matches version order.
func (s *Store) Key(version uint64) string {
	return fmt.Sprintf("%s%020d.json", s.prefix(), version)
}

func (s *Store) load(ctx context.Context) error {
	infos, err := s.Snapshots(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}
	latest := infos[len(infos)-1]
	_, rc, err := s.blobs.Get(ctx, latest.Key)
	if err != nil {
		return fmt.Errorf("get %s: %w", latest.Key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", latest.Key, err)
	}
	snap, err := memory.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("%s: %w", latest.Key, err)
	}
	s.ImportState(snap)
	return nil
}

// Snapshots lists this document's snapshot blobs, oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]blob.Info, error) {
	infos, err := s.blobs.List(ctx, s.prefix())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := infos[:0]
	for _, info := range infos {
		if strings.HasSuffix(info.Key, ".json") {
			out = append(out, info)
		}
	}
	return out, nil
}

// SetState writes the next snapshot and then publishes it to readers.
// Pruning runs after the commit; its failure does not undo the commit and is
// reported by PruneErr.
func (s *Store) SetState(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.Stage(s.document, state)
	data, err := memory.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	key := s.Key(snap.Version)
	_, err = s.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"document": s.document,
			"version":  strconv.FormatUint(snap.Version, 10),
		},
	})
	if errors.Is(err, blob.ErrExists) {
		return fmt.Errorf("%w: %s", ErrConflict, key)
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.ImportState(snap)
	_, s.pruneErr = s.prune(ctx)
	return nil
}

// Prune deletes the oldest snapshots beyond the retention count and returns
// how many were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(ctx)
}

func (s *Store) prune(ctx context.Context) (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	infos, err := s.Snapshots(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(infos) > s.retain {
		if _, err := s.blobs.Delete(ctx, infos[0].Key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", infos[0].Key, err)
		}
		infos = infos[1:]
		removed++
	}
	return removed, nil
}

// PruneErr returns the error from the last post-commit prune, if any.
func (s *Store) PruneErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneErr
}

// Document returns the document id this store persists.
func (s *Store) Document() string { return s.document }

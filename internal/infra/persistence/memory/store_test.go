package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"diagramcore/pkg/domain"
)

func TestStoreClonesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	initial := domain.State{Nodes: []domain.Node{{ID: "n1", Position: domain.Point{X: 1, Y: 2}}}, Edges: []domain.Edge{}}
	store := NewStore(initial)
	initial.Nodes[0].ID = "mutated"

	got, err := store.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.Nodes[0].ID != "n1" {
		t.Fatalf("expected store to keep its own copy, got %s", got.Nodes[0].ID)
	}
	got.Nodes[0].Position.X = 99

	again, _ := store.GetState(ctx)
	if again.Nodes[0].Position.X != 1 {
		t.Fatalf("expected read result to be detached, got %v", again.Nodes[0].Position)
	}

	next := domain.State{Nodes: []domain.Node{{ID: "n2"}}, Edges: []domain.Edge{}}
	if err := store.SetState(ctx, next); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	next.Nodes[0].ID = "changed"
	after, _ := store.GetState(ctx)
	if after.Nodes[0].ID != "n2" {
		t.Fatalf("expected written state to be detached, got %s", after.Nodes[0].ID)
	}
	if store.Version() != 1 {
		t.Fatalf("expected version 1, got %d", store.Version())
	}
}

func TestStoreEmptyByDefault(t *testing.T) {
	state, err := NewStore().GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Nodes == nil || state.Edges == nil || len(state.Nodes)+len(state.Edges) != 0 {
		t.Fatalf("expected empty non-nil containers, got %+v", state)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore()
	if _, err := store.GetState(ctx); err == nil {
		t.Fatalf("expected cancelled context error from GetState")
	}
	if err := store.SetState(ctx, domain.State{}); err == nil {
		t.Fatalf("expected cancelled context error from SetState")
	}
}

func TestSnapshotRoundTripRestoresMetadata(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewStore(domain.State{
		Nodes:    []domain.Node{{ID: "n1", ZOrder: domain.Ptr(3)}},
		Metadata: domain.Metadata{domain.MetadataViewport: domain.Viewport{X: 10, Y: 20, Scale: 2}},
	})
	store.SetNowFuncForTesting(func() time.Time { return fixed })

	data, err := EncodeSnapshot(store.ExportState("doc"))
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.Document != "doc" || !snap.SavedAt.Equal(fixed) {
		t.Fatalf("unexpected envelope %+v", snap)
	}

	restored := NewStore()
	restored.ImportState(snap)
	state, _ := restored.GetState(context.Background())
	if diff := cmp.Diff(domain.Viewport{X: 10, Y: 20, Scale: 2}, state.Metadata.Viewport()); diff != "" {
		t.Fatalf("viewport mismatch (-want +got):\n%s", diff)
	}
	if state.Edges == nil {
		t.Fatalf("expected edges normalized to empty slice")
	}
	if state.Nodes[0].ZOrder == nil || *state.Nodes[0].ZOrder != 3 {
		t.Fatalf("expected zOrder to survive round trip, got %v", state.Nodes[0].ZOrder)
	}
}

func TestStageDoesNotCommit(t *testing.T) {
	store := NewStore()
	snap := store.Stage("doc", domain.State{Nodes: []domain.Node{{ID: "n1"}}})
	if snap.Version != 1 {
		t.Fatalf("expected staged version 1, got %d", snap.Version)
	}
	state, _ := store.GetState(context.Background())
	if len(state.Nodes) != 0 || store.Version() != 0 {
		t.Fatalf("expected stage to leave store untouched")
	}
	store.ImportState(snap)
	if store.Version() != 1 {
		t.Fatalf("expected imported version 1, got %d", store.Version())
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

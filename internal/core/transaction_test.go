package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"diagramcore/pkg/domain"
)

func TestTransactionMergesQueuedUpdatesInOrder(t *testing.T) {
	m := NewTransactionManager()
	if err := m.Start(domain.ActionPaste); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.Active() || m.Label() != domain.ActionPaste {
		t.Fatalf("expected open paste transaction")
	}
	n1 := domain.Node{ID: "n1"}
	e1 := domain.Edge{ID: "e1", Source: "n1", Target: "n1"}
	if err := m.Queue(domain.Update{NodesToAdd: []domain.Node{n1}}, domain.ActionFor(domain.CommandAddNodes)); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if err := m.Queue(domain.Update{EdgesToAdd: []domain.Edge{e1}}, domain.ActionFor(domain.CommandAddEdges)); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	res, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := TransactionResult{
		MergedUpdate:   domain.Update{NodesToAdd: []domain.Node{n1}, EdgesToAdd: []domain.Edge{e1}},
		LastActionType: domain.ActionFor(domain.CommandAddEdges),
		CommandsCount:  2,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if m.Active() {
		t.Fatalf("transaction should be closed")
	}
}

func TestTransactionEmptyStop(t *testing.T) {
	m := NewTransactionManager()
	if err := m.Start(domain.ActionInit); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.CommandsCount != 0 || res.LastActionType != "" || !res.MergedUpdate.IsEmpty() {
		t.Fatalf("unexpected empty result %+v", res)
	}
}

func TestTransactionStateErrors(t *testing.T) {
	m := NewTransactionManager()
	if err := m.Queue(domain.Update{}, "x"); !errors.Is(err, ErrNoActiveTransaction) {
		t.Fatalf("expected ErrNoActiveTransaction from Queue, got %v", err)
	}
	if _, err := m.Stop(); !errors.Is(err, ErrNoActiveTransaction) {
		t.Fatalf("expected ErrNoActiveTransaction from Stop, got %v", err)
	}
	if err := m.Start("a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start("b"); !errors.Is(err, ErrTransactionActive) {
		t.Fatalf("expected ErrTransactionActive, got %v", err)
	}
	if m.Label() != "a" {
		t.Fatalf("failed Start must not relabel, got %s", m.Label())
	}
}

func TestTransactionDiscardDropsQueue(t *testing.T) {
	m := NewTransactionManager()
	_ = m.Start("a")
	_ = m.Queue(domain.Update{NodesToRemove: []string{"x"}}, "a")
	m.Discard()
	if m.Active() {
		t.Fatalf("discard should close the transaction")
	}
	_ = m.Start("b")
	res, _ := m.Stop()
	if res.CommandsCount != 0 {
		t.Fatalf("discarded patches leaked into the next transaction: %+v", res)
	}
}

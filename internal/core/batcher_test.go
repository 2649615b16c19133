package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"diagramcore/pkg/domain"
)

type flushLog struct {
	mu      sync.Mutex
	batches [][]int
	done    chan struct{}
}

func newFlushLog() *flushLog {
	return &flushLog{done: make(chan struct{}, 8)}
}

func (f *flushLog) flush(items []int) {
	f.mu.Lock()
	f.batches = append(f.batches, items)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *flushLog) snapshot() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int(nil), f.batches...)
}

func TestBatcherFlushesInSubmissionOrder(t *testing.T) {
	log := newFlushLog()
	b := NewBatcher(time.Hour, log.flush)
	b.Add(1, 2)
	b.Add(3)
	if b.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", b.Pending())
	}
	b.Flush()
	if diff := cmp.Diff([][]int{{1, 2, 3}}, log.snapshot()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
	if b.Pending() != 0 {
		t.Fatalf("flush should empty the queue")
	}
	b.Flush()
	if len(log.snapshot()) != 1 {
		t.Fatalf("empty flush should not call back")
	}
}

func TestBatcherTimerFlushesOnce(t *testing.T) {
	log := newFlushLog()
	b := NewBatcher(10*time.Millisecond, log.flush)
	b.Add(1)
	b.Add(2)
	select {
	case <-log.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not flush")
	}
	if diff := cmp.Diff([][]int{{1, 2}}, log.snapshot()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestBatcherDrainAndClose(t *testing.T) {
	log := newFlushLog()
	b := NewBatcher(time.Hour, log.flush)
	b.Add(1)
	if diff := cmp.Diff([]int{1}, b.Drain()); diff != "" {
		t.Fatalf("drain mismatch (-want +got):\n%s", diff)
	}
	if len(log.snapshot()) != 0 {
		t.Fatalf("drain must not call back")
	}

	b.Add(2)
	b.Close()
	if diff := cmp.Diff([][]int{{2}}, log.snapshot()); diff != "" {
		t.Fatalf("close should flush (-want +got):\n%s", diff)
	}
	if b.Add(3) {
		t.Fatalf("add after close should be rejected")
	}
}

func TestMeasurementsCommitAsOneCycle(t *testing.T) {
	store := newCountingStore()
	audit := &captureAuditRecorder{}
	e := newTestEngine(t, store, WithAuditRecorder(audit), WithBatchWindow(time.Hour))
	seedGraph(t, e)
	before := store.setCount()

	e.QueueMeasurement(Measurement{Nodes: []domain.NodeUpdate{{ID: "n1", Size: &domain.Size{Width: 10, Height: 10}}}})
	e.QueueMeasurement(Measurement{
		Nodes: []domain.NodeUpdate{{ID: "n2", Size: &domain.Size{Width: 20, Height: 20}}},
		Edges: []domain.EdgeUpdate{{ID: "e12", Labels: []domain.EdgeLabel{{ID: "l", Size: &domain.Size{Width: 5, Height: 5}}}}},
	})
	if err := e.FlushMeasurements(context.Background()); err != nil {
		t.Fatalf("FlushMeasurements: %v", err)
	}
	if store.setCount() != before+1 {
		t.Fatalf("measurements should commit once, got %d writes", store.setCount()-before)
	}
	entry := audit.last(t)
	if entry.Action != string(domain.ActionMeasurements) || entry.CommandsCount != 2 {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
	state := mustState(t, e)
	if s := mustNode(t, state, "n2").Size; s == nil || s.Width != 20 {
		t.Fatalf("n2 size not applied: %+v", s)
	}
	if labels := mustEdge(t, state, "e12").Labels; len(labels) != 1 {
		t.Fatalf("edge measurement not applied: %+v", labels)
	}

	if err := e.FlushMeasurements(context.Background()); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if store.setCount() != before+1 {
		t.Fatalf("empty flush should not commit")
	}
}

func TestEngineCloseFlushesMeasurements(t *testing.T) {
	e := newTestEngine(t, nil, WithBatchWindow(time.Hour))
	seedGraph(t, e)
	e.QueueMeasurement(Measurement{Nodes: []domain.NodeUpdate{{ID: "n3", Angle: domain.Ptr(45.0)}}})
	e.Close()
	if got := mustNode(t, mustState(t, e), "n3").Angle; got != 45 {
		t.Fatalf("close should flush pending measurements, got angle %v", got)
	}
	if e.QueueMeasurement(Measurement{}) {
		t.Fatalf("queue after close should be rejected")
	}
}

func TestBatcherFlushWithSerializesWithFlush(t *testing.T) {
	var mu sync.Mutex
	var log []string
	record := func(entry string) {
		mu.Lock()
		log = append(log, entry)
		mu.Unlock()
	}
	b := NewBatcher(time.Hour, func(items []int) { record(fmt.Sprint("flush", items)) })
	b.Add(1)

	entered, release := make(chan struct{}), make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- b.FlushWith(func(items []int) error {
			close(entered)
			<-release
			record(fmt.Sprint("with", items))
			return errBoom
		})
	}()
	<-entered

	b.Add(2)
	done := make(chan struct{})
	go func() {
		b.Flush()
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("Flush ran while FlushWith was still in progress")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-done

	if err := <-errc; !errors.Is(err, errBoom) {
		t.Fatalf("expected FlushWith to return errBoom, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"with[1]", "flush[2]"}, log); diff != "" {
		t.Fatalf("flush order mismatch (-want +got):\n%s", diff)
	}
}

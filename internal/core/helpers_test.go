package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"diagramcore/internal/infra/persistence/memory"
	"diagramcore/pkg/domain"
)

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) last(t *testing.T) AuditEntry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		t.Fatalf("no audit entries recorded")
	}
	return c.entries[len(c.entries)-1]
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	mu    sync.Mutex
	ended []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.ended {
		if r.op == op && (r.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logLine struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) find(level, msg string) (logLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			return line, true
		}
	}
	return logLine{}, false
}

// countingStore wraps a memory store and counts writes. Failures can be armed
// per direction.
type countingStore struct {
	*memory.Store
	mu      sync.Mutex
	sets    int
	failGet error
	failSet error
}

func newCountingStore(initial ...domain.State) *countingStore {
	return &countingStore{Store: memory.NewStore(initial...)}
}

func (s *countingStore) GetState(ctx context.Context) (domain.State, error) {
	s.mu.Lock()
	err := s.failGet
	s.mu.Unlock()
	if err != nil {
		return domain.State{}, err
	}
	return s.Store.GetState(ctx)
}

func (s *countingStore) SetState(ctx context.Context, state domain.State) error {
	s.mu.Lock()
	err := s.failSet
	if err == nil {
		s.sets++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.SetState(ctx, state)
}

func (s *countingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

var errBoom = errors.New("boom")

// seqIDs returns a generator yielding prefix-1, prefix-2, ...
func seqIDs(prefix string) IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEngine(t *testing.T, store domain.ModelStore, opts ...Option) *Engine {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	opts = append([]Option{WithIDGenerator(seqIDs("id"))}, opts...)
	e, err := NewEngine(store, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func emit(t *testing.T, e *Engine, cmds ...domain.Command) {
	t.Helper()
	for _, cmd := range cmds {
		if err := e.Emit(context.Background(), cmd); err != nil {
			t.Fatalf("emit %s: %v", cmd.CommandName(), err)
		}
	}
}

func mustState(t *testing.T, e *Engine) domain.State {
	t.Helper()
	state, err := e.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return state
}

func mustNode(t *testing.T, state domain.State, id string) domain.Node {
	t.Helper()
	n, ok := domain.NewLookup(state).Node(id)
	if !ok {
		t.Fatalf("node %s missing from %+v", id, state.Nodes)
	}
	return n
}

func mustEdge(t *testing.T, state domain.State, id string) domain.Edge {
	t.Helper()
	ed, ok := domain.NewLookup(state).Edge(id)
	if !ok {
		t.Fatalf("edge %s missing from %+v", id, state.Edges)
	}
	return ed
}

func nodeIDs(nodes []domain.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

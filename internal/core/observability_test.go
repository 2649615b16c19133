package core

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"diagramcore/pkg/domain"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("recorder not published under %s", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, "op", true, time.Millisecond)
	rec.Observe(ctx, "op", true, time.Millisecond)
	rec.Observe(ctx, "op", false, 2*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.Results["op"]["success"] != 2 || snap.Results["op"]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if snap.DurationsMS["op"] != 4 {
		t.Fatalf("expected 4ms total, got %v", snap.DurationsMS["op"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation should be ignored, got %+v", snap.Results)
	}
	if !strings.Contains(expvar.Get(rec.Name()).String(), "results_total") {
		t.Fatalf("expvar output missing totals")
	}
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "ok")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "bad")
	span.End(errBoom)

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two json lines, got %q", buf.String())
	}
	var first JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Operation != "ok" {
		t.Fatalf("bad first line %q: %v", lines[0], err)
	}

	quiet := NewJSONTracer(nil)
	_, span = quiet.Start(context.Background(), "x")
	span.End(nil)
	if len(quiet.Entries()) != 1 {
		t.Fatalf("nil writer should still retain spans")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "apply_cycle", true, time.Millisecond)
	rec.Observe(ctx, "apply_cycle", false, time.Millisecond)
	rec.Observe(ctx, "apply_cycle", true, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("apply_cycle", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("apply_cycle", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.CollectAndCount(rec.durations); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestEngineWithPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	e := newTestEngine(t, nil, WithMetricsRecorder(rec))
	emit(t, e, domain.AddNodes{Nodes: []domain.Node{{ID: "n1"}}})
	if got := testutil.ToFloat64(rec.operations.WithLabelValues(OpApplyCycle, "success")); got != 1 {
		t.Fatalf("expected one committed cycle, got %v", got)
	}
}

func TestLoggerAuditRecorder(t *testing.T) {
	logger := &captureLogger{}
	rec := LoggerAuditRecorder{Logger: logger}
	rec.Record(context.Background(), AuditEntry{
		Action:      "addNodes",
		Status:      AuditStatusCancelled,
		CancelledBy: "veto",
		Error:       "x",
	})
	line, ok := logger.find("info", "audit")
	if !ok {
		t.Fatalf("expected audit line")
	}
	joined := fmtArgs(line.args)
	for _, want := range []string{"action=addNodes", "status=cancelled", "cancelled_by=veto", "error=x"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %s in %s", want, joined)
		}
	}

	LoggerAuditRecorder{}.Record(context.Background(), AuditEntry{})
}

func fmtArgs(args []any) string {
	var parts []string
	for i := 0; i+1 < len(args); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}
	return strings.Join(parts, " ")
}

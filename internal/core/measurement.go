package core

import (
	"context"

	"diagramcore/pkg/domain"
)

// Measurement is a batch of renderer-measured partials: node sizes, port
// geometry, edge label sizes.
type Measurement struct {
	Nodes []domain.NodeUpdate
	Edges []domain.EdgeUpdate
}

// QueueMeasurement defers m until the batch window closes. All measurements in
// one window commit as a single measurements cycle. It reports false after Close.
func (e *Engine) QueueMeasurement(m Measurement) bool {
	return e.batcher.Add(m)
}

// FlushMeasurements commits queued measurements now and returns the cycle's
// error. It waits for a timer flush in progress, so it must not be called from
// inside a cycle.
func (e *Engine) FlushMeasurements(ctx context.Context) error {
	return e.batcher.FlushWith(func(items []Measurement) error {
		return e.applyMeasurements(ctx, items)
	})
}

func (e *Engine) flushMeasurements(items []Measurement) {
	if err := e.applyMeasurements(context.Background(), items); err != nil {
		e.opts.logger.Error("flush measurements", "error", err, "batches", len(items))
	}
}

func (e *Engine) applyMeasurements(ctx context.Context, items []Measurement) error {
	if len(items) == 0 {
		return nil
	}
	var nodes []domain.NodeUpdate
	var edges []domain.EdgeUpdate
	for _, m := range items {
		nodes = append(nodes, m.Nodes...)
		edges = append(edges, m.Edges...)
	}
	return e.Transaction(ctx, domain.ActionMeasurements, func(ctx context.Context) error {
		if len(nodes) > 0 {
			if err := e.Emit(ctx, domain.UpdateNodes{Nodes: nodes}); err != nil {
				return err
			}
		}
		if len(edges) > 0 {
			if err := e.Emit(ctx, domain.UpdateEdges{Edges: edges}); err != nil {
				return err
			}
		}
		return nil
	})
}

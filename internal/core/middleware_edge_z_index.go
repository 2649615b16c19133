package core

import (
	"context"

	"diagramcore/pkg/domain"
)

// EdgeZIndexMiddleware assigns edge zIndex values from their endpoints. It
// must run after ZIndexMiddleware and reads that middleware's slice.
type EdgeZIndexMiddleware struct {
	defaults ZIndexConfig
}

// NewEdgeZIndexMiddleware constructs the edge middleware. cfg applies when the
// z-index slice is missing.
func NewEdgeZIndexMiddleware(cfg ZIndexConfig) *EdgeZIndexMiddleware {
	return &EdgeZIndexMiddleware{defaults: cfg}
}

// Name implements Middleware.
func (m *EdgeZIndexMiddleware) Name() string { return EdgeZIndexMiddlewareName }

// Execute implements Middleware.
func (m *EdgeZIndexMiddleware) Execute(_ context.Context, mc *MiddlewareContext) (Outcome, error) {
	cfg := zIndexConfig(mc, m.defaults)
	if !cfg.Enabled {
		return Next(), nil
	}

	var candidates []domain.Edge
	if mc.ActionType == domain.ActionInit {
		candidates = mc.State.Edges
	} else {
		candidates = edgeCandidates(mc)
	}
	if len(candidates) == 0 {
		return Next(), nil
	}

	lookup := mc.Lookup()
	var updates []domain.EdgeUpdate
	for _, e := range candidates {
		z := EdgeZIndex(lookup, cfg, e)
		if z == e.ZIndex {
			continue
		}
		updates = append(updates, domain.EdgeUpdate{ID: e.ID, ZIndex: domain.Ptr(z)})
	}
	if len(updates) == 0 {
		return Next(), nil
	}
	return Next(domain.Update{EdgesToUpdate: updates}), nil
}

// edgeCandidates returns current edges whose selection or zOrder changed,
// edges added by linking or added selected or overridden, and edges attached
// to nodes whose zIndex was written during the cycle. Order follows the state.
func edgeCandidates(mc *MiddlewareContext) []domain.Edge {
	want := make(map[string]struct{})
	for _, id := range mc.AffectedEdgeIDs(domain.PropSelected, domain.PropZOrder) {
		want[id] = struct{}{}
	}
	for _, e := range mc.AddedEdges() {
		if mc.ActionType == domain.ActionFinishLinking || e.Selected || e.ZOrder != nil {
			want[e.ID] = struct{}{}
		}
	}

	lookup := mc.Lookup()
	for _, nodeID := range mc.AffectedNodeIDs(domain.PropZIndex) {
		for _, e := range lookup.ConnectedEdges(nodeID) {
			want[e.ID] = struct{}{}
		}
	}
	if len(want) == 0 {
		return nil
	}

	var out []domain.Edge
	for _, e := range mc.State.Edges {
		if _, ok := want[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

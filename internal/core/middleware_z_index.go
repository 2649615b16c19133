package core

import (
	"context"

	"diagramcore/pkg/domain"
)

// Built-in middleware names.
const (
	ZIndexMiddlewareName     = "z-index"
	EdgeZIndexMiddlewareName = "edge-z-index"
	LoggingMiddlewareName    = "logging"
)

// ZIndexMiddleware assigns node zIndex values. It owns the ZIndexConfig slice
// that the edge middleware also reads.
type ZIndexMiddleware struct {
	defaults ZIndexConfig
}

// NewZIndexMiddleware constructs the node middleware with cfg as its default slice.
func NewZIndexMiddleware(cfg ZIndexConfig) *ZIndexMiddleware {
	return &ZIndexMiddleware{defaults: cfg}
}

// Name implements Middleware.
func (m *ZIndexMiddleware) Name() string { return ZIndexMiddlewareName }

// DefaultMetadata implements MetadataDefaulter.
func (m *ZIndexMiddleware) DefaultMetadata() any { return m.defaults }

// Execute implements Middleware.
func (m *ZIndexMiddleware) Execute(_ context.Context, mc *MiddlewareContext) (Outcome, error) {
	cfg := zIndexConfig(mc, m.defaults)
	if !cfg.Enabled {
		return Next(), nil
	}

	var assignments []ZAssignment
	if mc.ActionType == domain.ActionInit {
		assignments = FullNodeZIndex(mc.State, cfg)
	} else {
		roots := zIndexRoots(mc)
		if len(roots) == 0 {
			return Next(), nil
		}
		lookup := mc.Lookup()
		for _, root := range roots {
			base, floor := NodeBase(lookup, root)
			assignments = append(assignments, AssignNodeZIndex(lookup, cfg, root, base, floor)...)
		}
	}

	lookup := mc.Lookup()
	var updates []domain.NodeUpdate
	for _, a := range assignments {
		n, ok := lookup.Node(a.ID)
		if !ok || n.ZIndex == a.ZIndex {
			continue
		}
		updates = append(updates, domain.NodeUpdate{ID: a.ID, ZIndex: domain.Ptr(a.ZIndex)})
	}
	if len(updates) == 0 {
		return Next(), nil
	}
	return Next(domain.Update{NodesToUpdate: updates}), nil
}

// zIndexRoots collects nodes whose selection, group or zOrder changed, and
// added nodes carrying any of those, dropping nodes already covered by an
// affected ancestor.
func zIndexRoots(mc *MiddlewareContext) []domain.Node {
	ids := mc.AffectedNodeIDs(domain.PropSelected, domain.PropGroupID, domain.PropZOrder)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, n := range mc.AddedNodes() {
		if n.GroupID == "" && n.ZOrder == nil && !n.Selected && !n.IsGroup {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		ids = append(ids, n.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	lookup := mc.Lookup()
	var roots []domain.Node
	for _, id := range ids {
		n, ok := lookup.Node(id)
		if !ok {
			continue
		}
		covered := false
		for _, ancestor := range lookup.Ancestors(id) {
			if _, affected := seen[ancestor.ID]; affected {
				covered = true
				break
			}
		}
		if !covered {
			roots = append(roots, n)
		}
	}
	return roots
}

func zIndexConfig(mc *MiddlewareContext, fallback ZIndexConfig) ZIndexConfig {
	if cfg, ok := MetadataAs[ZIndexConfig](mc, ZIndexMiddlewareName); ok {
		return cfg
	}
	return fallback
}

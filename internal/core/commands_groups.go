package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func highlightGroupCommand(ctx context.Context, e *Engine, cmd domain.HighlightGroup) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	g, ok := lookup.Node(cmd.GroupID)
	if !ok || !g.IsGroup {
		return nil
	}
	prev := e.editor.SetHighlightedGroup(g.ID)
	var u domain.Update
	if prev != "" && prev != g.ID {
		if p, ok := lookup.Node(prev); ok && p.Highlighted {
			u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: p.ID, Highlighted: domain.Ptr(false)})
		}
	}
	if !g.Highlighted {
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: g.ID, Highlighted: domain.Ptr(true)})
	}
	return e.applyIfAny(ctx, u, domain.ActionFor(cmd.CommandName()))
}

func highlightGroupClearCommand(ctx context.Context, e *Engine, cmd domain.HighlightGroupClear) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return e.applyIfAny(ctx, clearHighlight(e, lookup), domain.ActionFor(cmd.CommandName()))
}

func clearHighlight(e *Engine, lookup *domain.Lookup) domain.Update {
	var u domain.Update
	prev := e.editor.SetHighlightedGroup("")
	if p, ok := lookup.Node(prev); ok && p.Highlighted {
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: p.ID, Highlighted: domain.Ptr(false)})
	}
	return u
}

// addToGroupCommand moves nodes into a group and clears the drop highlight.
// The group itself and its ancestors are skipped so no cycle can form.
func addToGroupCommand(ctx context.Context, e *Engine, cmd domain.AddToGroup) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	g, ok := lookup.Node(cmd.GroupID)
	if !ok || !g.IsGroup {
		return nil
	}
	u := clearHighlight(e, lookup)
	for _, id := range cmd.NodeIDs {
		n, ok := lookup.Node(id)
		if !ok || n.ID == g.ID || n.GroupID == g.ID || lookup.IsAncestor(n.ID, g.ID) {
			continue
		}
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, GroupID: domain.Ptr(g.ID)})
	}
	return e.applyIfAny(ctx, u, domain.ActionFor(cmd.CommandName()))
}

func removeFromGroupCommand(ctx context.Context, e *Engine, cmd domain.RemoveFromGroup) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	var u domain.Update
	for _, id := range cmd.NodeIDs {
		n, ok := lookup.Node(id)
		if !ok || n.GroupID == "" || n.GroupID != cmd.GroupID {
			continue
		}
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, GroupID: domain.Ptr("")})
	}
	return e.applyIfAny(ctx, u, domain.ActionFor(cmd.CommandName()))
}

func bringToFrontCommand(ctx context.Context, e *Engine, cmd domain.BringToFront) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	nodes, edges := reorderTargets(state, cmd.NodeIDs, cmd.EdgeIDs)
	if len(nodes)+len(edges) == 0 {
		return nil
	}
	next := stackTop(state) + 1
	return e.ApplyUpdate(ctx, zOrderUpdate(nodes, edges, next), domain.ActionFor(cmd.CommandName()))
}

func sendToBackCommand(ctx context.Context, e *Engine, cmd domain.SendToBack) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	nodes, edges := reorderTargets(state, cmd.NodeIDs, cmd.EdgeIDs)
	count := len(nodes) + len(edges)
	if count == 0 {
		return nil
	}
	first := stackBottom(state) - count
	return e.ApplyUpdate(ctx, zOrderUpdate(nodes, edges, first), domain.ActionFor(cmd.CommandName()))
}

// reorderTargets resolves explicit ids, or the selection when none are given,
// in state order.
func reorderTargets(state domain.State, nodeIDs, edgeIDs []string) ([]domain.Node, []domain.Edge) {
	if len(nodeIDs) == 0 && len(edgeIDs) == 0 {
		return selectedNodes(state), selectedEdges(state)
	}
	nodeSet, edgeSet := idSet(nodeIDs), idSet(edgeIDs)
	var nodes []domain.Node
	for _, n := range state.Nodes {
		if _, ok := nodeSet[n.ID]; ok {
			nodes = append(nodes, n)
		}
	}
	var edges []domain.Edge
	for _, ed := range state.Edges {
		if _, ok := edgeSet[ed.ID]; ok {
			edges = append(edges, ed)
		}
	}
	return nodes, edges
}

// zOrderUpdate assigns consecutive zOrder values from start, nodes first,
// keeping the targets' relative order.
func zOrderUpdate(nodes []domain.Node, edges []domain.Edge, start int) domain.Update {
	var u domain.Update
	z := start
	for _, n := range nodes {
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, ZOrder: domain.Ptr(z)})
		z++
	}
	for _, ed := range edges {
		u.EdgesToUpdate = append(u.EdgesToUpdate, domain.EdgeUpdate{ID: ed.ID, ZOrder: domain.Ptr(z)})
		z++
	}
	return u
}

func stackValue(zOrder *int, zIndex int) int {
	if zOrder != nil {
		return *zOrder
	}
	return zIndex
}

func stackTop(state domain.State) int {
	top := 0
	for _, n := range state.Nodes {
		top = max(top, stackValue(n.ZOrder, n.ZIndex))
	}
	for _, ed := range state.Edges {
		top = max(top, stackValue(ed.ZOrder, ed.ZIndex))
	}
	return top
}

func stackBottom(state domain.State) int {
	bottom := 0
	for _, n := range state.Nodes {
		bottom = min(bottom, stackValue(n.ZOrder, n.ZIndex))
	}
	for _, ed := range state.Edges {
		bottom = min(bottom, stackValue(ed.ZOrder, ed.ZIndex))
	}
	return bottom
}

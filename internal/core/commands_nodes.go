package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func addNodesCommand(ctx context.Context, e *Engine, cmd domain.AddNodes) error {
	if len(cmd.Nodes) == 0 {
		return nil
	}
	nodes := make([]domain.Node, len(cmd.Nodes))
	for i, n := range cmd.Nodes {
		nodes[i] = domain.CloneNode(n)
		if nodes[i].ID == "" {
			nodes[i].ID = e.opts.ids()
		}
	}
	return e.ApplyUpdate(ctx, domain.Update{NodesToAdd: nodes}, domain.ActionFor(cmd.CommandName()))
}

func updateNodeCommand(ctx context.Context, e *Engine, cmd domain.UpdateNode) error {
	return updateNodes(ctx, e, []domain.NodeUpdate{cmd.NodeUpdate}, domain.ActionFor(cmd.CommandName()))
}

func updateNodesCommand(ctx context.Context, e *Engine, cmd domain.UpdateNodes) error {
	return updateNodes(ctx, e, cmd.Nodes, domain.ActionFor(cmd.CommandName()))
}

func updateNodes(ctx context.Context, e *Engine, updates []domain.NodeUpdate, action domain.ActionType) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	var u domain.Update
	for _, nu := range updates {
		if _, ok := lookup.Node(nu.ID); ok {
			u.NodesToUpdate = append(u.NodesToUpdate, nu)
		}
	}
	return e.applyIfAny(ctx, u, action)
}

func deleteNodesCommand(ctx context.Context, e *Engine, cmd domain.DeleteNodes) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return e.applyIfAny(ctx, deleteUpdate(state, lookup, cmd.IDs, nil), domain.ActionFor(cmd.CommandName()))
}

func deleteSelectionCommand(ctx context.Context, e *Engine, cmd domain.DeleteSelection) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	var nodeIDs, edgeIDs []string
	for _, n := range selectedNodes(state) {
		nodeIDs = append(nodeIDs, n.ID)
	}
	for _, ed := range selectedEdges(state) {
		edgeIDs = append(edgeIDs, ed.ID)
	}
	return e.applyIfAny(ctx, deleteUpdate(state, lookup, nodeIDs, edgeIDs), domain.ActionFor(cmd.CommandName()))
}

// deleteUpdate removes the given nodes and edges plus every edge attached to
// a removed node. Direct children of a removed group that survive are
// ungrouped.
func deleteUpdate(state domain.State, lookup *domain.Lookup, nodeIDs, edgeIDs []string) domain.Update {
	var u domain.Update
	removed := make(map[string]struct{})
	for _, id := range nodeIDs {
		if _, ok := lookup.Node(id); !ok {
			continue
		}
		if _, dup := removed[id]; dup {
			continue
		}
		removed[id] = struct{}{}
		u.NodesToRemove = append(u.NodesToRemove, id)
	}

	edges := make(map[string]struct{})
	addEdge := func(id string) {
		if _, dup := edges[id]; dup {
			return
		}
		edges[id] = struct{}{}
		u.EdgesToRemove = append(u.EdgesToRemove, id)
	}
	for _, id := range edgeIDs {
		if _, ok := lookup.Edge(id); ok {
			addEdge(id)
		}
	}
	for _, ed := range state.Edges {
		_, src := removed[ed.Source]
		_, tgt := removed[ed.Target]
		if src || tgt {
			addEdge(ed.ID)
		}
	}

	for _, n := range state.Nodes {
		if _, gone := removed[n.ID]; gone {
			continue
		}
		if _, parentGone := removed[n.GroupID]; parentGone {
			u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, GroupID: domain.Ptr("")})
		}
	}
	return u
}

func moveSelectionCommand(ctx context.Context, e *Engine, cmd domain.MoveSelection) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	var ids []string
	for _, n := range selectedNodes(state) {
		ids = append(ids, n.ID)
	}
	return e.applyIfAny(ctx, moveUpdate(state, lookup, ids, cmd.Delta), domain.ActionFor(cmd.CommandName()))
}

func moveNodesByCommand(ctx context.Context, e *Engine, cmd domain.MoveNodesBy) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return e.applyIfAny(ctx, moveUpdate(state, lookup, cmd.NodeIDs, cmd.Delta), domain.ActionFor(cmd.CommandName()))
}

// moveUpdate translates the nodes and their descendants by delta. A zero
// delta moves nothing.
func moveUpdate(state domain.State, lookup *domain.Lookup, ids []string, delta domain.Point) domain.Update {
	var u domain.Update
	if delta == (domain.Point{}) {
		return u
	}
	for _, n := range withDescendants(state, lookup, ids) {
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, Position: domain.Ptr(n.Position.Add(delta))})
	}
	return u
}

func controlNodeSizeCommand(ctx context.Context, e *Engine, cmd domain.ControlNodeSize) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.ID)
	if !ok {
		return nil
	}
	if n.Size != nil && !n.AutoSize {
		return nil
	}
	if n.Size != nil && *n.Size == cmd.Size {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		NodesToUpdate: []domain.NodeUpdate{{ID: n.ID, Size: domain.Ptr(cmd.Size)}},
	}, domain.ActionFor(cmd.CommandName()))
}

func resizeNodeCommand(ctx context.Context, e *Engine, cmd domain.ResizeNode) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.ID)
	if !ok {
		return nil
	}
	nu := domain.NodeUpdate{ID: n.ID}
	changed := false
	if n.Size == nil || *n.Size != cmd.Size {
		nu.Size = domain.Ptr(cmd.Size)
		changed = true
	}
	if n.AutoSize {
		nu.AutoSize = domain.Ptr(false)
		changed = true
	}
	if cmd.Position != nil && *cmd.Position != n.Position {
		nu.Position = domain.Ptr(*cmd.Position)
		changed = true
	}
	if !changed {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{NodesToUpdate: []domain.NodeUpdate{nu}}, domain.ActionFor(cmd.CommandName()))
}

package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func selectCommand(ctx context.Context, e *Engine, cmd domain.Select) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	nodes, edges := idSet(cmd.NodeIDs), idSet(cmd.EdgeIDs)
	var u domain.Update
	for _, n := range state.Nodes {
		_, want := nodes[n.ID]
		if !want && cmd.Multiple {
			continue
		}
		if n.Selected != want {
			u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, Selected: domain.Ptr(want)})
		}
	}
	for _, ed := range state.Edges {
		_, want := edges[ed.ID]
		if !want && cmd.Multiple {
			continue
		}
		if ed.Selected != want {
			u.EdgesToUpdate = append(u.EdgesToUpdate, domain.EdgeUpdate{ID: ed.ID, Selected: domain.Ptr(want)})
		}
	}
	return e.applyIfAny(ctx, u, domain.ActionChangeSelection)
}

func deselectCommand(ctx context.Context, e *Engine, cmd domain.Deselect) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	nodes, edges := idSet(cmd.NodeIDs), idSet(cmd.EdgeIDs)
	var u domain.Update
	for _, n := range state.Nodes {
		if _, ok := nodes[n.ID]; ok && n.Selected {
			u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, Selected: domain.Ptr(false)})
		}
	}
	for _, ed := range state.Edges {
		if _, ok := edges[ed.ID]; ok && ed.Selected {
			u.EdgesToUpdate = append(u.EdgesToUpdate, domain.EdgeUpdate{ID: ed.ID, Selected: domain.Ptr(false)})
		}
	}
	return e.applyIfAny(ctx, u, domain.ActionChangeSelection)
}

func deselectAllCommand(ctx context.Context, e *Engine, _ domain.DeselectAll) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return e.applyIfAny(ctx, deselectAllUpdate(state, nil, nil), domain.ActionChangeSelection)
}

// deselectAllUpdate clears selection on everything except the kept ids.
func deselectAllUpdate(state domain.State, keepNodes, keepEdges map[string]struct{}) domain.Update {
	var u domain.Update
	for _, n := range state.Nodes {
		if _, keep := keepNodes[n.ID]; keep || !n.Selected {
			continue
		}
		u.NodesToUpdate = append(u.NodesToUpdate, domain.NodeUpdate{ID: n.ID, Selected: domain.Ptr(false)})
	}
	for _, ed := range state.Edges {
		if _, keep := keepEdges[ed.ID]; keep || !ed.Selected {
			continue
		}
		u.EdgesToUpdate = append(u.EdgesToUpdate, domain.EdgeUpdate{ID: ed.ID, Selected: domain.Ptr(false)})
	}
	return u
}

func selectedNodes(state domain.State) []domain.Node {
	var out []domain.Node
	for _, n := range state.Nodes {
		if n.Selected {
			out = append(out, n)
		}
	}
	return out
}

func selectedEdges(state domain.State) []domain.Edge {
	var out []domain.Edge
	for _, ed := range state.Edges {
		if ed.Selected {
			out = append(out, ed)
		}
	}
	return out
}

// withDescendants expands ids with every node nested under them, keeping
// state order and dropping unknown ids.
func withDescendants(state domain.State, lookup *domain.Lookup, ids []string) []domain.Node {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := lookup.Node(id); !ok {
			continue
		}
		want[id] = struct{}{}
		for _, d := range lookup.Descendants(id) {
			want[d.ID] = struct{}{}
		}
	}
	var out []domain.Node
	for _, n := range state.Nodes {
		if _, ok := want[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

package core

import (
	"context"
	"math"

	"diagramcore/pkg/domain"
)

func copyCommand(ctx context.Context, e *Engine, _ domain.Copy) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	e.editor.SetClipboard(copySelection(state, lookup))
	return nil
}

// copySelection captures selected nodes with their descendants, and the edges
// whose endpoints were both captured.
func copySelection(state domain.State, lookup *domain.Lookup) Clipboard {
	var ids []string
	for _, n := range selectedNodes(state) {
		ids = append(ids, n.ID)
	}
	nodes := withDescendants(state, lookup, ids)
	copied := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		copied[n.ID] = struct{}{}
	}
	var edges []domain.Edge
	for _, ed := range state.Edges {
		_, src := copied[ed.Source]
		_, tgt := copied[ed.Target]
		if src && tgt {
			edges = append(edges, ed)
		}
	}
	return Clipboard{Nodes: nodes, Edges: edges}
}

func cutCommand(ctx context.Context, e *Engine, _ domain.Cut) error {
	return e.Transaction(ctx, domain.ActionCut, func(ctx context.Context) error {
		if err := e.Emit(ctx, domain.Copy{}); err != nil {
			return err
		}
		return e.Emit(ctx, domain.DeleteSelection{})
	})
}

// pasteCommand inserts the clipboard under fresh ids. Pasted entities become
// the selection.
func pasteCommand(ctx context.Context, e *Engine, cmd domain.Paste) error {
	clip := e.editor.Clipboard()
	if len(clip.Nodes) == 0 {
		return nil
	}
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}

	delta := domain.Point{X: e.opts.pasteOffset, Y: e.opts.pasteOffset}
	if cmd.Position != nil {
		origin := topLeft(clip.Nodes)
		delta = domain.Point{X: cmd.Position.X - origin.X, Y: cmd.Position.Y - origin.Y}
	}

	remap := make(map[string]string, len(clip.Nodes))
	for _, n := range clip.Nodes {
		remap[n.ID] = e.opts.ids()
	}

	u := deselectAllUpdate(state, nil, nil)
	for _, n := range clip.Nodes {
		pasted := domain.CloneNode(n)
		pasted.ID = remap[n.ID]
		pasted.Position = n.Position.Add(delta)
		pasted.Selected = true
		pasted.Highlighted = false
		if id, ok := remap[n.GroupID]; ok {
			pasted.GroupID = id
		} else if _, ok := lookup.Node(n.GroupID); !ok {
			pasted.GroupID = ""
		}
		u.NodesToAdd = append(u.NodesToAdd, pasted)
	}
	for _, ed := range clip.Edges {
		pasted := domain.CloneEdge(ed)
		pasted.ID = e.opts.ids()
		pasted.Source = remap[ed.Source]
		pasted.Target = remap[ed.Target]
		pasted.Selected = true
		for i := range pasted.Points {
			pasted.Points[i] = pasted.Points[i].Add(delta)
		}
		u.EdgesToAdd = append(u.EdgesToAdd, pasted)
	}
	return e.ApplyUpdate(ctx, u, domain.ActionPaste)
}

func topLeft(nodes []domain.Node) domain.Point {
	p := domain.Point{X: math.Inf(1), Y: math.Inf(1)}
	for _, n := range nodes {
		p.X = math.Min(p.X, n.Position.X)
		p.Y = math.Min(p.Y, n.Position.Y)
	}
	return p
}

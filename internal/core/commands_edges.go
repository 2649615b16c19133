package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func addEdgesCommand(ctx context.Context, e *Engine, cmd domain.AddEdges) error {
	if len(cmd.Edges) == 0 {
		return nil
	}
	edges := make([]domain.Edge, len(cmd.Edges))
	for i, ed := range cmd.Edges {
		edges[i] = domain.CloneEdge(ed)
		if edges[i].ID == "" {
			edges[i].ID = e.opts.ids()
		}
	}
	return e.ApplyUpdate(ctx, domain.Update{EdgesToAdd: edges}, domain.ActionFor(cmd.CommandName()))
}

func updateEdgeCommand(ctx context.Context, e *Engine, cmd domain.UpdateEdge) error {
	return updateEdges(ctx, e, []domain.EdgeUpdate{cmd.EdgeUpdate}, domain.ActionFor(cmd.CommandName()))
}

func updateEdgesCommand(ctx context.Context, e *Engine, cmd domain.UpdateEdges) error {
	return updateEdges(ctx, e, cmd.Edges, domain.ActionFor(cmd.CommandName()))
}

func updateEdges(ctx context.Context, e *Engine, updates []domain.EdgeUpdate, action domain.ActionType) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	var u domain.Update
	for _, eu := range updates {
		if _, ok := lookup.Edge(eu.ID); ok {
			u.EdgesToUpdate = append(u.EdgesToUpdate, eu)
		}
	}
	return e.applyIfAny(ctx, u, action)
}

func deleteEdgesCommand(ctx context.Context, e *Engine, cmd domain.DeleteEdges) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	return e.applyIfAny(ctx, deleteUpdate(state, lookup, nil, cmd.IDs), domain.ActionFor(cmd.CommandName()))
}

func addPortsCommand(ctx context.Context, e *Engine, cmd domain.AddPorts) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.NodeID)
	if !ok {
		return nil
	}
	existing := make(map[string]struct{}, len(n.Ports))
	for _, p := range n.Ports {
		existing[p.ID] = struct{}{}
	}
	ports := append([]domain.Port{}, n.Ports...)
	added := false
	for _, p := range cmd.Ports {
		if _, dup := existing[p.ID]; dup {
			continue
		}
		existing[p.ID] = struct{}{}
		ports = append(ports, p)
		added = true
	}
	if !added {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		NodesToUpdate: []domain.NodeUpdate{{ID: n.ID, Ports: ports}},
	}, domain.ActionFor(cmd.CommandName()))
}

func updatePortsCommand(ctx context.Context, e *Engine, cmd domain.UpdatePorts) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.NodeID)
	if !ok {
		return nil
	}
	ports := append([]domain.Port{}, n.Ports...)
	changed := false
	for _, pu := range cmd.Ports {
		for i := range ports {
			if ports[i].ID == pu.ID {
				ports[i] = pu.ApplyTo(ports[i])
				changed = true
			}
		}
	}
	if !changed {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		NodesToUpdate: []domain.NodeUpdate{{ID: n.ID, Ports: ports}},
	}, domain.ActionFor(cmd.CommandName()))
}

func deletePortsCommand(ctx context.Context, e *Engine, cmd domain.DeletePorts) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.NodeID)
	if !ok {
		return nil
	}
	drop := idSet(cmd.PortIDs)
	ports := make([]domain.Port, 0, len(n.Ports))
	for _, p := range n.Ports {
		if _, gone := drop[p.ID]; !gone {
			ports = append(ports, p)
		}
	}
	if len(ports) == len(n.Ports) {
		return nil
	}
	u := domain.Update{NodesToUpdate: []domain.NodeUpdate{{ID: n.ID, Ports: ports}}}
	for _, ed := range state.Edges {
		_, src := drop[ed.SourcePort]
		_, tgt := drop[ed.TargetPort]
		if (ed.Source == n.ID && src) || (ed.Target == n.ID && tgt) {
			u.EdgesToRemove = append(u.EdgesToRemove, ed.ID)
		}
	}
	return e.ApplyUpdate(ctx, u, domain.ActionFor(cmd.CommandName()))
}

func addEdgeLabelsCommand(ctx context.Context, e *Engine, cmd domain.AddEdgeLabels) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	ed, ok := lookup.Edge(cmd.EdgeID)
	if !ok {
		return nil
	}
	existing := make(map[string]struct{}, len(ed.Labels))
	for _, l := range ed.Labels {
		existing[l.ID] = struct{}{}
	}
	labels := append([]domain.EdgeLabel{}, ed.Labels...)
	added := false
	for _, l := range cmd.Labels {
		if _, dup := existing[l.ID]; dup {
			continue
		}
		existing[l.ID] = struct{}{}
		labels = append(labels, l)
		added = true
	}
	if !added {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		EdgesToUpdate: []domain.EdgeUpdate{{ID: ed.ID, Labels: labels}},
	}, domain.ActionFor(cmd.CommandName()))
}

func updateEdgeLabelCommand(ctx context.Context, e *Engine, cmd domain.UpdateEdgeLabel) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	ed, ok := lookup.Edge(cmd.EdgeID)
	if !ok {
		return nil
	}
	labels := append([]domain.EdgeLabel{}, ed.Labels...)
	changed := false
	for i := range labels {
		if labels[i].ID == cmd.LabelID {
			labels[i] = cmd.Update.ApplyTo(labels[i])
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		EdgesToUpdate: []domain.EdgeUpdate{{ID: ed.ID, Labels: labels}},
	}, domain.ActionFor(cmd.CommandName()))
}

func deleteEdgeLabelsCommand(ctx context.Context, e *Engine, cmd domain.DeleteEdgeLabels) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	ed, ok := lookup.Edge(cmd.EdgeID)
	if !ok {
		return nil
	}
	drop := idSet(cmd.LabelIDs)
	labels := make([]domain.EdgeLabel, 0, len(ed.Labels))
	for _, l := range ed.Labels {
		if _, gone := drop[l.ID]; !gone {
			labels = append(labels, l)
		}
	}
	if len(labels) == len(ed.Labels) {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		EdgesToUpdate: []domain.EdgeUpdate{{ID: ed.ID, Labels: labels}},
	}, domain.ActionFor(cmd.CommandName()))
}

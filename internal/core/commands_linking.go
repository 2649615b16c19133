package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func startLinkingCommand(ctx context.Context, e *Engine, cmd domain.StartLinking) error {
	_, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	n, ok := lookup.Node(cmd.NodeID)
	if !ok {
		return nil
	}
	origin := n.Position
	if cmd.PortID != "" {
		p, ok := findPort(n, cmd.PortID)
		if !ok || p.Type == domain.PortTarget {
			return nil
		}
		origin = portCenter(n, p)
	}
	temp := domain.TemporaryEdge{
		Source:         n.ID,
		SourcePort:     cmd.PortID,
		SourcePosition: origin,
		TargetPosition: origin,
	}
	return setTemporaryEdge(ctx, e, &temp, domain.ActionFor(cmd.CommandName()))
}

func startLinkingFromPositionCommand(ctx context.Context, e *Engine, cmd domain.StartLinkingFromPosition) error {
	temp := domain.TemporaryEdge{SourcePosition: cmd.Position, TargetPosition: cmd.Position}
	return setTemporaryEdge(ctx, e, &temp, domain.ActionFor(cmd.CommandName()))
}

func moveTemporaryEdgeCommand(ctx context.Context, e *Engine, cmd domain.MoveTemporaryEdge) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	temp, ok := state.Metadata.TemporaryEdge()
	if !ok {
		return nil
	}
	temp.TargetPosition = cmd.Position
	temp.Target, temp.TargetPort = "", ""
	if target, ok := lookup.Node(cmd.TargetNodeID); ok {
		if cmd.TargetPortID == "" {
			temp.Target = target.ID
		} else if p, ok := findPort(target, cmd.TargetPortID); ok && p.Type != domain.PortSource {
			temp.Target = target.ID
			temp.TargetPort = p.ID
		}
	}
	return setTemporaryEdge(ctx, e, &temp, domain.ActionFor(cmd.CommandName()))
}

// finishLinkingCommand turns the temporary edge into a real edge ending at the
// target. An invalid target only clears the temporary edge.
func finishLinkingCommand(ctx context.Context, e *Engine, cmd domain.FinishLinking) error {
	state, lookup, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	temp, ok := state.Metadata.TemporaryEdge()
	if !ok {
		return nil
	}
	u := domain.Update{MetadataUpdate: domain.Metadata{domain.MetadataTemporaryEdge: nil}}
	if target, ok := linkTarget(lookup, temp, cmd.TargetNodeID, cmd.TargetPortID); ok {
		edge := domain.Edge{
			ID:         e.opts.ids(),
			Source:     temp.Source,
			SourcePort: temp.SourcePort,
			Target:     target.ID,
			TargetPort: cmd.TargetPortID,
		}
		if temp.Source == "" {
			edge.SourcePosition = domain.Ptr(temp.SourcePosition)
		}
		u.EdgesToAdd = []domain.Edge{edge}
	}
	return e.ApplyUpdate(ctx, u, domain.ActionFinishLinking)
}

func finishLinkingToPositionCommand(ctx context.Context, e *Engine, cmd domain.FinishLinkingToPosition) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	temp, ok := state.Metadata.TemporaryEdge()
	if !ok {
		return nil
	}
	u := domain.Update{MetadataUpdate: domain.Metadata{domain.MetadataTemporaryEdge: nil}}
	if temp.Source != "" {
		u.EdgesToAdd = []domain.Edge{{
			ID:             e.opts.ids(),
			Source:         temp.Source,
			SourcePort:     temp.SourcePort,
			TargetPosition: domain.Ptr(cmd.Position),
		}}
	}
	return e.ApplyUpdate(ctx, u, domain.ActionFor(cmd.CommandName()))
}

func linkTarget(lookup *domain.Lookup, temp domain.TemporaryEdge, nodeID, portID string) (domain.Node, bool) {
	target, ok := lookup.Node(nodeID)
	if !ok {
		return domain.Node{}, false
	}
	if portID != "" {
		p, ok := findPort(target, portID)
		if !ok || p.Type == domain.PortSource {
			return domain.Node{}, false
		}
	}
	if target.ID == temp.Source && portID == temp.SourcePort {
		return domain.Node{}, false
	}
	return target, true
}

func setTemporaryEdge(ctx context.Context, e *Engine, temp *domain.TemporaryEdge, action domain.ActionType) error {
	return e.ApplyUpdate(ctx, domain.Update{
		MetadataUpdate: domain.Metadata{domain.MetadataTemporaryEdge: temp},
	}, action)
}

func findPort(n domain.Node, id string) (domain.Port, bool) {
	for _, p := range n.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Port{}, false
}

// portCenter is the port's midpoint in flow coordinates, or the node position
// when the port has not been measured.
func portCenter(n domain.Node, p domain.Port) domain.Point {
	if p.Position == nil {
		return n.Position
	}
	c := n.Position.Add(*p.Position)
	if p.Size != nil {
		c = c.Add(domain.Point{X: p.Size.Width / 2, Y: p.Size.Height / 2})
	}
	return c
}

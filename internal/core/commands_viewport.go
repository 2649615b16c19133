package core

import (
	"context"

	"diagramcore/pkg/domain"
)

func moveViewportCommand(ctx context.Context, e *Engine, cmd domain.MoveViewport) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	vp := state.Metadata.Viewport()
	return setViewport(ctx, e, vp, domain.Viewport{X: cmd.X, Y: cmd.Y, Scale: vp.Scale}, domain.ActionFor(cmd.CommandName()))
}

func moveViewportByCommand(ctx context.Context, e *Engine, cmd domain.MoveViewportBy) error {
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	vp := state.Metadata.Viewport()
	return setViewport(ctx, e, vp, domain.Viewport{X: vp.X + cmd.X, Y: vp.Y + cmd.Y, Scale: vp.Scale}, domain.ActionFor(cmd.CommandName()))
}

// zoomCommand rescales around Center: the flow point under Center stays put.
func zoomCommand(ctx context.Context, e *Engine, cmd domain.Zoom) error {
	if cmd.Scale <= 0 {
		return nil
	}
	state, _, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	vp := state.Metadata.Viewport()
	if vp.Scale <= 0 {
		vp.Scale = 1
	}
	scale := e.opts.zoom.Clamp(cmd.Scale)
	ratio := scale / vp.Scale
	next := domain.Viewport{
		X:     cmd.Center.X - (cmd.Center.X-vp.X)*ratio,
		Y:     cmd.Center.Y - (cmd.Center.Y-vp.Y)*ratio,
		Scale: scale,
	}
	return setViewport(ctx, e, vp, next, domain.ActionFor(cmd.CommandName()))
}

func setViewport(ctx context.Context, e *Engine, current, next domain.Viewport, action domain.ActionType) error {
	if current == next {
		return nil
	}
	return e.ApplyUpdate(ctx, domain.Update{
		MetadataUpdate: domain.Metadata{domain.MetadataViewport: next},
	}, action)
}

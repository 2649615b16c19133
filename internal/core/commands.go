package core

import (
	"context"
	"fmt"

	"diagramcore/pkg/domain"
)

type commandHandler func(ctx context.Context, e *Engine, cmd domain.Command) error

type commandEntry struct {
	name    domain.Name
	handler commandHandler
}

// builtinCommands is registered on every engine's dispatcher at construction,
// in this order.
var builtinCommands = []commandEntry{
	{domain.CommandInit, handle(initCommand)},
	{domain.CommandSelect, handle(selectCommand)},
	{domain.CommandDeselect, handle(deselectCommand)},
	{domain.CommandDeselectAll, handle(deselectAllCommand)},
	{domain.CommandAddNodes, handle(addNodesCommand)},
	{domain.CommandUpdateNode, handle(updateNodeCommand)},
	{domain.CommandUpdateNodes, handle(updateNodesCommand)},
	{domain.CommandDeleteNodes, handle(deleteNodesCommand)},
	{domain.CommandAddEdges, handle(addEdgesCommand)},
	{domain.CommandUpdateEdge, handle(updateEdgeCommand)},
	{domain.CommandUpdateEdges, handle(updateEdgesCommand)},
	{domain.CommandDeleteEdges, handle(deleteEdgesCommand)},
	{domain.CommandDeleteSelection, handle(deleteSelectionCommand)},
	{domain.CommandAddPorts, handle(addPortsCommand)},
	{domain.CommandUpdatePorts, handle(updatePortsCommand)},
	{domain.CommandDeletePorts, handle(deletePortsCommand)},
	{domain.CommandAddEdgeLabels, handle(addEdgeLabelsCommand)},
	{domain.CommandUpdateEdgeLabel, handle(updateEdgeLabelCommand)},
	{domain.CommandDeleteEdgeLabels, handle(deleteEdgeLabelsCommand)},
	{domain.CommandMoveSelection, handle(moveSelectionCommand)},
	{domain.CommandMoveNodesBy, handle(moveNodesByCommand)},
	{domain.CommandMoveViewport, handle(moveViewportCommand)},
	{domain.CommandMoveViewportBy, handle(moveViewportByCommand)},
	{domain.CommandZoom, handle(zoomCommand)},
	{domain.CommandStartLinking, handle(startLinkingCommand)},
	{domain.CommandStartLinkingFromPosition, handle(startLinkingFromPositionCommand)},
	{domain.CommandMoveTemporaryEdge, handle(moveTemporaryEdgeCommand)},
	{domain.CommandFinishLinking, handle(finishLinkingCommand)},
	{domain.CommandFinishLinkingToPosition, handle(finishLinkingToPositionCommand)},
	{domain.CommandCopy, handle(copyCommand)},
	{domain.CommandPaste, handle(pasteCommand)},
	{domain.CommandCut, handle(cutCommand)},
	{domain.CommandBringToFront, handle(bringToFrontCommand)},
	{domain.CommandSendToBack, handle(sendToBackCommand)},
	{domain.CommandControlNodeSize, handle(controlNodeSizeCommand)},
	{domain.CommandResizeNode, handle(resizeNodeCommand)},
	{domain.CommandHighlightGroup, handle(highlightGroupCommand)},
	{domain.CommandHighlightGroupClear, handle(highlightGroupClearCommand)},
	{domain.CommandAddToGroup, handle(addToGroupCommand)},
	{domain.CommandRemoveFromGroup, handle(removeFromGroupCommand)},
}

// BuiltinCommandNames lists the commands every engine handles, in
// registration order.
func BuiltinCommandNames() []domain.Name {
	out := make([]domain.Name, len(builtinCommands))
	for i, entry := range builtinCommands {
		out[i] = entry.name
	}
	return out
}

func handle[T domain.Command](fn func(ctx context.Context, e *Engine, cmd T) error) commandHandler {
	return func(ctx context.Context, e *Engine, cmd domain.Command) error {
		typed, ok := cmd.(T)
		if !ok {
			return fmt.Errorf("command %s: unexpected payload %T", cmd.CommandName(), cmd)
		}
		return fn(ctx, e, typed)
	}
}

// snapshot reads the committed state and indexes it.
func (e *Engine) snapshot(ctx context.Context) (domain.State, *domain.Lookup, error) {
	state, err := e.getState(ctx)
	if err != nil {
		return domain.State{}, nil, err
	}
	return state, domain.NewLookup(state), nil
}

// applyIfAny queues u unless it is empty. Commands whose targets are all
// missing end up here with nothing to do.
func (e *Engine) applyIfAny(ctx context.Context, u domain.Update, action domain.ActionType) error {
	if u.IsEmpty() {
		return nil
	}
	return e.ApplyUpdate(ctx, u, action)
}

func initCommand(ctx context.Context, e *Engine, _ domain.Init) error {
	return e.ApplyUpdate(ctx, domain.Update{}, domain.ActionInit)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

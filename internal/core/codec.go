package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"diagramcore/pkg/domain"
)

// ErrUnknownCommand is returned when decoding a command name with no decoder.
var ErrUnknownCommand = errors.New("unknown command")

type commandDecoder func(raw []byte) (domain.Command, error)

func decodeAs[T domain.Command](raw []byte) (domain.Command, error) {
	var cmd T
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

var commandDecoders = map[domain.Name]commandDecoder{
	domain.CommandInit:                     decodeAs[domain.Init],
	domain.CommandSelect:                   decodeAs[domain.Select],
	domain.CommandDeselect:                 decodeAs[domain.Deselect],
	domain.CommandDeselectAll:              decodeAs[domain.DeselectAll],
	domain.CommandAddNodes:                 decodeAs[domain.AddNodes],
	domain.CommandUpdateNode:               decodeAs[domain.UpdateNode],
	domain.CommandUpdateNodes:              decodeAs[domain.UpdateNodes],
	domain.CommandDeleteNodes:              decodeAs[domain.DeleteNodes],
	domain.CommandAddEdges:                 decodeAs[domain.AddEdges],
	domain.CommandUpdateEdge:               decodeAs[domain.UpdateEdge],
	domain.CommandUpdateEdges:              decodeAs[domain.UpdateEdges],
	domain.CommandDeleteEdges:              decodeAs[domain.DeleteEdges],
	domain.CommandDeleteSelection:          decodeAs[domain.DeleteSelection],
	domain.CommandAddPorts:                 decodeAs[domain.AddPorts],
	domain.CommandUpdatePorts:              decodeAs[domain.UpdatePorts],
	domain.CommandDeletePorts:              decodeAs[domain.DeletePorts],
	domain.CommandAddEdgeLabels:            decodeAs[domain.AddEdgeLabels],
	domain.CommandUpdateEdgeLabel:          decodeAs[domain.UpdateEdgeLabel],
	domain.CommandDeleteEdgeLabels:         decodeAs[domain.DeleteEdgeLabels],
	domain.CommandMoveSelection:            decodeAs[domain.MoveSelection],
	domain.CommandMoveNodesBy:              decodeAs[domain.MoveNodesBy],
	domain.CommandMoveViewport:             decodeAs[domain.MoveViewport],
	domain.CommandMoveViewportBy:           decodeAs[domain.MoveViewportBy],
	domain.CommandZoom:                     decodeAs[domain.Zoom],
	domain.CommandStartLinking:             decodeAs[domain.StartLinking],
	domain.CommandStartLinkingFromPosition: decodeAs[domain.StartLinkingFromPosition],
	domain.CommandMoveTemporaryEdge:        decodeAs[domain.MoveTemporaryEdge],
	domain.CommandFinishLinking:            decodeAs[domain.FinishLinking],
	domain.CommandFinishLinkingToPosition:  decodeAs[domain.FinishLinkingToPosition],
	domain.CommandCopy:                     decodeAs[domain.Copy],
	domain.CommandPaste:                    decodeAs[domain.Paste],
	domain.CommandCut:                      decodeAs[domain.Cut],
	domain.CommandBringToFront:             decodeAs[domain.BringToFront],
	domain.CommandSendToBack:               decodeAs[domain.SendToBack],
	domain.CommandControlNodeSize:          decodeAs[domain.ControlNodeSize],
	domain.CommandResizeNode:               decodeAs[domain.ResizeNode],
	domain.CommandHighlightGroup:           decodeAs[domain.HighlightGroup],
	domain.CommandHighlightGroupClear:      decodeAs[domain.HighlightGroupClear],
	domain.CommandAddToGroup:               decodeAs[domain.AddToGroup],
	domain.CommandRemoveFromGroup:          decodeAs[domain.RemoveFromGroup],
}

// DecodeCommand decodes a tagged record {"name": "...", ...fields}.
func DecodeCommand(raw []byte) (domain.Command, error) {
	var head struct {
		Name domain.Name `json:"name"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	decode, ok := commandDecoders[head.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, head.Name)
	}
	cmd, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Name, err)
	}
	return cmd, nil
}

// DecodeScript decodes a JSON array of tagged command records.
func DecodeScript(raw []byte) ([]domain.Command, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	out := make([]domain.Command, 0, len(items))
	for i, item := range items {
		cmd, err := DecodeCommand(item)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// EncodeCommand renders cmd as a tagged record.
func EncodeCommand(cmd domain.Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CommandName(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CommandName(), err)
	}
	name, err := json.Marshal(cmd.CommandName())
	if err != nil {
		return nil, err
	}
	fields["name"] = name
	return json.Marshal(fields)
}

package domain

// Name is the tag of a command.
type Name string

// Built-in command names.
const (
	CommandInit                     Name = "init"
	CommandSelect                   Name = "select"
	CommandDeselect                 Name = "deselect"
	CommandDeselectAll              Name = "deselectAll"
	CommandAddNodes                 Name = "addNodes"
	CommandUpdateNode               Name = "updateNode"
	CommandUpdateNodes              Name = "updateNodes"
	CommandDeleteNodes              Name = "deleteNodes"
	CommandAddEdges                 Name = "addEdges"
	CommandUpdateEdge               Name = "updateEdge"
	CommandUpdateEdges              Name = "updateEdges"
	CommandDeleteEdges              Name = "deleteEdges"
	CommandDeleteSelection          Name = "deleteSelection"
	CommandAddPorts                 Name = "addPorts"
	CommandUpdatePorts              Name = "updatePorts"
	CommandDeletePorts              Name = "deletePorts"
	CommandAddEdgeLabels            Name = "addEdgeLabels"
	CommandUpdateEdgeLabel          Name = "updateEdgeLabel"
	CommandDeleteEdgeLabels         Name = "deleteEdgeLabels"
	CommandMoveSelection            Name = "moveSelection"
	CommandMoveNodesBy              Name = "moveNodesBy"
	CommandMoveViewport             Name = "moveViewport"
	CommandMoveViewportBy           Name = "moveViewportBy"
	CommandZoom                     Name = "zoom"
	CommandStartLinking             Name = "startLinking"
	CommandStartLinkingFromPosition Name = "startLinkingFromPosition"
	CommandMoveTemporaryEdge        Name = "moveTemporaryEdge"
	CommandFinishLinking            Name = "finishLinking"
	CommandFinishLinkingToPosition  Name = "finishLinkingToPosition"
	CommandCopy                     Name = "copy"
	CommandPaste                    Name = "paste"
	CommandCut                      Name = "cut"
	CommandBringToFront             Name = "bringToFront"
	CommandSendToBack               Name = "sendToBack"
	CommandControlNodeSize          Name = "controlNodeSize"
	CommandResizeNode               Name = "resizeNode"
	CommandHighlightGroup           Name = "highlightGroup"
	CommandHighlightGroupClear      Name = "highlightGroupClear"
	CommandAddToGroup               Name = "addToGroup"
	CommandRemoveFromGroup          Name = "removeFromGroup"
)

// ActionType labels a patch with the intent that produced it.
type ActionType string

// Action tags that do not map one-to-one onto a command.
const (
	ActionInit                     ActionType = "init"
	ActionChangeSelection          ActionType = "changeSelection"
	ActionFinishLinking            ActionType = "finishLinking"
	ActionPaste                    ActionType = "paste"
	ActionCut                      ActionType = "cut"
	ActionMeasurements             ActionType = "measurements"
	ActionUpdateMiddlewareMetadata ActionType = "updateMiddlewareMetadata"
)

// ActionFor returns the default action tag for a command name.
func ActionFor(name Name) ActionType {
	return ActionType(name)
}

// Command is a tagged intent. Field shape is specific to each tag.
type Command interface {
	CommandName() Name
}

type (
	// Init recomputes every derived value once the model is loaded.
	Init struct{}

	// Select marks nodes and edges selected. Unless Multiple is set, every
	// other entity is deselected.
	Select struct {
		NodeIDs  []string `json:"nodeIds,omitempty"`
		EdgeIDs  []string `json:"edgeIds,omitempty"`
		Multiple bool     `json:"multiple,omitempty"`
	}

	Deselect struct {
		NodeIDs []string `json:"nodeIds,omitempty"`
		EdgeIDs []string `json:"edgeIds,omitempty"`
	}

	DeselectAll struct{}

	AddNodes struct {
		Nodes []Node `json:"nodes"`
	}

	UpdateNode struct {
		NodeUpdate
	}

	UpdateNodes struct {
		Nodes []NodeUpdate `json:"nodes"`
	}

	// DeleteNodes removes nodes and every edge attached to them. Children of
	// a removed group stay in the model, ungrouped.
	DeleteNodes struct {
		IDs []string `json:"ids"`
	}

	AddEdges struct {
		Edges []Edge `json:"edges"`
	}

	UpdateEdge struct {
		EdgeUpdate
	}

	UpdateEdges struct {
		Edges []EdgeUpdate `json:"edges"`
	}

	DeleteEdges struct {
		IDs []string `json:"ids"`
	}

	DeleteSelection struct{}

	AddPorts struct {
		NodeID string `json:"nodeId"`
		Ports  []Port `json:"ports"`
	}

	UpdatePorts struct {
		NodeID string       `json:"nodeId"`
		Ports  []PortUpdate `json:"ports"`
	}

	// DeletePorts removes ports and the edges attached through them.
	DeletePorts struct {
		NodeID  string   `json:"nodeId"`
		PortIDs []string `json:"portIds"`
	}

	AddEdgeLabels struct {
		EdgeID string      `json:"edgeId"`
		Labels []EdgeLabel `json:"labels"`
	}

	UpdateEdgeLabel struct {
		EdgeID  string          `json:"edgeId"`
		LabelID string          `json:"labelId"`
		Update  EdgeLabelUpdate `json:"update"`
	}

	DeleteEdgeLabels struct {
		EdgeID   string   `json:"edgeId"`
		LabelIDs []string `json:"labelIds"`
	}

	// MoveSelection moves selected nodes, and the descendants of selected
	// groups, by Delta.
	MoveSelection struct {
		Delta Point `json:"delta"`
	}

	MoveNodesBy struct {
		NodeIDs []string `json:"nodeIds"`
		Delta   Point    `json:"delta"`
	}

	MoveViewport struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	MoveViewportBy struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Zoom sets the viewport scale, keeping Center fixed on screen.
	Zoom struct {
		Scale  float64 `json:"scale"`
		Center Point   `json:"center"`
	}

	StartLinking struct {
		NodeID string `json:"nodeId"`
		PortID string `json:"portId,omitempty"`
	}

	StartLinkingFromPosition struct {
		Position Point `json:"position"`
	}

	MoveTemporaryEdge struct {
		Position     Point  `json:"position"`
		TargetNodeID string `json:"targetNodeId,omitempty"`
		TargetPortID string `json:"targetPortId,omitempty"`
	}

	FinishLinking struct {
		TargetNodeID string `json:"targetNodeId"`
		TargetPortID string `json:"targetPortId,omitempty"`
	}

	FinishLinkingToPosition struct {
		Position Point `json:"position"`
	}

	Copy struct{}

	// Paste inserts the clipboard. With a Position the pasted bounds start
	// there; otherwise they are offset from the originals.
	Paste struct {
		Position *Point `json:"position,omitempty"`
	}

	Cut struct{}

	// BringToFront raises the given entities above everything else; empty
	// id lists target the current selection.
	BringToFront struct {
		NodeIDs []string `json:"nodeIds,omitempty"`
		EdgeIDs []string `json:"edgeIds,omitempty"`
	}

	SendToBack struct {
		NodeIDs []string `json:"nodeIds,omitempty"`
		EdgeIDs []string `json:"edgeIds,omitempty"`
	}

	// ControlNodeSize records a renderer-measured size for auto-sized nodes.
	ControlNodeSize struct {
		ID   string `json:"id"`
		Size Size   `json:"size"`
	}

	// ResizeNode applies a user resize and turns auto-sizing off.
	ResizeNode struct {
		ID       string `json:"id"`
		Size     Size   `json:"size"`
		Position *Point `json:"position,omitempty"`
	}

	HighlightGroup struct {
		GroupID string `json:"groupId"`
	}

	HighlightGroupClear struct{}

	AddToGroup struct {
		GroupID string   `json:"groupId"`
		NodeIDs []string `json:"nodeIds"`
	}

	RemoveFromGroup struct {
		GroupID string   `json:"groupId"`
		NodeIDs []string `json:"nodeIds"`
	}
)

func (Init) CommandName() Name                     { return CommandInit }
func (Select) CommandName() Name                   { return CommandSelect }
func (Deselect) CommandName() Name                 { return CommandDeselect }
func (DeselectAll) CommandName() Name              { return CommandDeselectAll }
func (AddNodes) CommandName() Name                 { return CommandAddNodes }
func (UpdateNode) CommandName() Name               { return CommandUpdateNode }
func (UpdateNodes) CommandName() Name              { return CommandUpdateNodes }
func (DeleteNodes) CommandName() Name              { return CommandDeleteNodes }
func (AddEdges) CommandName() Name                 { return CommandAddEdges }
func (UpdateEdge) CommandName() Name               { return CommandUpdateEdge }
func (UpdateEdges) CommandName() Name              { return CommandUpdateEdges }
func (DeleteEdges) CommandName() Name              { return CommandDeleteEdges }
func (DeleteSelection) CommandName() Name          { return CommandDeleteSelection }
func (AddPorts) CommandName() Name                 { return CommandAddPorts }
func (UpdatePorts) CommandName() Name              { return CommandUpdatePorts }
func (DeletePorts) CommandName() Name              { return CommandDeletePorts }
func (AddEdgeLabels) CommandName() Name            { return CommandAddEdgeLabels }
func (UpdateEdgeLabel) CommandName() Name          { return CommandUpdateEdgeLabel }
func (DeleteEdgeLabels) CommandName() Name         { return CommandDeleteEdgeLabels }
func (MoveSelection) CommandName() Name            { return CommandMoveSelection }
func (MoveNodesBy) CommandName() Name              { return CommandMoveNodesBy }
func (MoveViewport) CommandName() Name             { return CommandMoveViewport }
func (MoveViewportBy) CommandName() Name           { return CommandMoveViewportBy }
func (Zoom) CommandName() Name                     { return CommandZoom }
func (StartLinking) CommandName() Name             { return CommandStartLinking }
func (StartLinkingFromPosition) CommandName() Name { return CommandStartLinkingFromPosition }
func (MoveTemporaryEdge) CommandName() Name        { return CommandMoveTemporaryEdge }
func (FinishLinking) CommandName() Name            { return CommandFinishLinking }
func (FinishLinkingToPosition) CommandName() Name  { return CommandFinishLinkingToPosition }
func (Copy) CommandName() Name                     { return CommandCopy }
func (Paste) CommandName() Name                    { return CommandPaste }
func (Cut) CommandName() Name                      { return CommandCut }
func (BringToFront) CommandName() Name             { return CommandBringToFront }
func (SendToBack) CommandName() Name               { return CommandSendToBack }
func (ControlNodeSize) CommandName() Name          { return CommandControlNodeSize }
func (ResizeNode) CommandName() Name               { return CommandResizeNode }
func (HighlightGroup) CommandName() Name           { return CommandHighlightGroup }
func (HighlightGroupClear) CommandName() Name      { return CommandHighlightGroupClear }
func (AddToGroup) CommandName() Name               { return CommandAddToGroup }
func (RemoveFromGroup) CommandName() Name          { return CommandRemoveFromGroup }

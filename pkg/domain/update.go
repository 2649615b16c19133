package domain

// Property names a node or edge field for change detection.
type Property string

// Node and edge properties tracked by partial updates.
const (
	PropType           Property = "type"
	PropPosition       Property = "position"
	PropSize           Property = "size"
	PropAutoSize       Property = "autoSize"
	PropResizable      Property = "resizable"
	PropAngle          Property = "angle"
	PropSelected       Property = "selected"
	PropIsGroup        Property = "isGroup"
	PropGroupID        Property = "groupId"
	PropHighlighted    Property = "highlighted"
	PropZOrder         Property = "zOrder"
	PropZIndex         Property = "zIndex"
	PropPorts          Property = "ports"
	PropData           Property = "data"
	PropSource         Property = "source"
	PropTarget         Property = "target"
	PropSourcePort     Property = "sourcePort"
	PropTargetPort     Property = "targetPort"
	PropPoints         Property = "points"
	PropSourcePosition Property = "sourcePosition"
	PropTargetPosition Property = "targetPosition"
	PropTemporary      Property = "temporary"
	PropLabels         Property = "labels"
)

// NodeUpdate is a partial node keyed by ID. A nil field leaves the current
// value untouched; Ports and Data replace the current value wholesale.
type NodeUpdate struct {
	ID          string         `json:"id"`
	Type        *string        `json:"type,omitempty"`
	Position    *Point         `json:"position,omitempty"`
	Size        *Size          `json:"size,omitempty"`
	AutoSize    *bool          `json:"autoSize,omitempty"`
	Resizable   *bool          `json:"resizable,omitempty"`
	Angle       *float64       `json:"angle,omitempty"`
	Selected    *bool          `json:"selected,omitempty"`
	IsGroup     *bool          `json:"isGroup,omitempty"`
	GroupID     *string        `json:"groupId,omitempty"`
	Highlighted *bool          `json:"highlighted,omitempty"`
	ZOrder      *int           `json:"zOrder,omitempty"`
	ZIndex      *int           `json:"zIndex,omitempty"`
	Ports       []Port         `json:"ports,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Has reports whether the partial sets prop.
func (u NodeUpdate) Has(prop Property) bool {
	switch prop {
	case PropType:
		return u.Type != nil
	case PropPosition:
		return u.Position != nil
	case PropSize:
		return u.Size != nil
	case PropAutoSize:
		return u.AutoSize != nil
	case PropResizable:
		return u.Resizable != nil
	case PropAngle:
		return u.Angle != nil
	case PropSelected:
		return u.Selected != nil
	case PropIsGroup:
		return u.IsGroup != nil
	case PropGroupID:
		return u.GroupID != nil
	case PropHighlighted:
		return u.Highlighted != nil
	case PropZOrder:
		return u.ZOrder != nil
	case PropZIndex:
		return u.ZIndex != nil
	case PropPorts:
		return u.Ports != nil
	case PropData:
		return u.Data != nil
	}
	return false
}

// ApplyTo returns n with the partial's set fields written over it.
func (u NodeUpdate) ApplyTo(n Node) Node {
	out := CloneNode(n)
	if u.Type != nil {
		out.Type = *u.Type
	}
	if u.Position != nil {
		out.Position = *u.Position
	}
	if u.Size != nil {
		size := *u.Size
		out.Size = &size
	}
	if u.AutoSize != nil {
		out.AutoSize = *u.AutoSize
	}
	if u.Resizable != nil {
		out.Resizable = *u.Resizable
	}
	if u.Angle != nil {
		out.Angle = *u.Angle
	}
	if u.Selected != nil {
		out.Selected = *u.Selected
	}
	if u.IsGroup != nil {
		out.IsGroup = *u.IsGroup
	}
	if u.GroupID != nil {
		out.GroupID = *u.GroupID
	}
	if u.Highlighted != nil {
		out.Highlighted = *u.Highlighted
	}
	if u.ZOrder != nil {
		z := *u.ZOrder
		out.ZOrder = &z
	}
	if u.ZIndex != nil {
		out.ZIndex = *u.ZIndex
	}
	if u.Ports != nil {
		out.Ports = make([]Port, len(u.Ports))
		for i, p := range u.Ports {
			out.Ports[i] = clonePort(p)
		}
	}
	if u.Data != nil {
		out.Data = cloneData(u.Data)
	}
	return out
}

// EdgeUpdate is a partial edge keyed by ID. Points, Labels and Data replace
// the current value wholesale.
type EdgeUpdate struct {
	ID             string         `json:"id"`
	Source         *string        `json:"source,omitempty"`
	Target         *string        `json:"target,omitempty"`
	SourcePort     *string        `json:"sourcePort,omitempty"`
	TargetPort     *string        `json:"targetPort,omitempty"`
	Type           *string        `json:"type,omitempty"`
	Points         []Point        `json:"points,omitempty"`
	SourcePosition *Point         `json:"sourcePosition,omitempty"`
	TargetPosition *Point         `json:"targetPosition,omitempty"`
	Selected       *bool          `json:"selected,omitempty"`
	Temporary      *bool          `json:"temporary,omitempty"`
	ZOrder         *int           `json:"zOrder,omitempty"`
	ZIndex         *int           `json:"zIndex,omitempty"`
	Labels         []EdgeLabel    `json:"labels,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// Has reports whether the partial sets prop.
func (u EdgeUpdate) Has(prop Property) bool {
	switch prop {
	case PropSource:
		return u.Source != nil
	case PropTarget:
		return u.Target != nil
	case PropSourcePort:
		return u.SourcePort != nil
	case PropTargetPort:
		return u.TargetPort != nil
	case PropType:
		return u.Type != nil
	case PropPoints:
		return u.Points != nil
	case PropSourcePosition:
		return u.SourcePosition != nil
	case PropTargetPosition:
		return u.TargetPosition != nil
	case PropSelected:
		return u.Selected != nil
	case PropTemporary:
		return u.Temporary != nil
	case PropZOrder:
		return u.ZOrder != nil
	case PropZIndex:
		return u.ZIndex != nil
	case PropLabels:
		return u.Labels != nil
	case PropData:
		return u.Data != nil
	}
	return false
}

// ApplyTo returns e with the partial's set fields written over it.
func (u EdgeUpdate) ApplyTo(e Edge) Edge {
	out := CloneEdge(e)
	if u.Source != nil {
		out.Source = *u.Source
	}
	if u.Target != nil {
		out.Target = *u.Target
	}
	if u.SourcePort != nil {
		out.SourcePort = *u.SourcePort
	}
	if u.TargetPort != nil {
		out.TargetPort = *u.TargetPort
	}
	if u.Type != nil {
		out.Type = *u.Type
	}
	if u.Points != nil {
		out.Points = append([]Point{}, u.Points...)
	}
	if u.SourcePosition != nil {
		out.SourcePosition = clonePoint(u.SourcePosition)
	}
	if u.TargetPosition != nil {
		out.TargetPosition = clonePoint(u.TargetPosition)
	}
	if u.Selected != nil {
		out.Selected = *u.Selected
	}
	if u.Temporary != nil {
		out.Temporary = *u.Temporary
	}
	if u.ZOrder != nil {
		z := *u.ZOrder
		out.ZOrder = &z
	}
	if u.ZIndex != nil {
		out.ZIndex = *u.ZIndex
	}
	if u.Labels != nil {
		out.Labels = make([]EdgeLabel, len(u.Labels))
		for i, l := range u.Labels {
			out.Labels[i] = cloneLabel(l)
		}
	}
	if u.Data != nil {
		out.Data = cloneData(u.Data)
	}
	return out
}

// PortUpdate is a partial port keyed by ID.
type PortUpdate struct {
	ID       string    `json:"id"`
	Type     *PortType `json:"type,omitempty"`
	Side     *PortSide `json:"side,omitempty"`
	Position *Point    `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
}

// ApplyTo returns p with the partial's set fields written over it.
func (u PortUpdate) ApplyTo(p Port) Port {
	out := clonePort(p)
	if u.Type != nil {
		out.Type = *u.Type
	}
	if u.Side != nil {
		out.Side = *u.Side
	}
	if u.Position != nil {
		out.Position = clonePoint(u.Position)
	}
	if u.Size != nil {
		size := *u.Size
		out.Size = &size
	}
	return out
}

// EdgeLabelUpdate is a partial edge label keyed by ID.
type EdgeLabelUpdate struct {
	ID             string   `json:"id"`
	PositionOnEdge *float64 `json:"positionOnEdge,omitempty"`
	Position       *Point   `json:"position,omitempty"`
	Size           *Size    `json:"size,omitempty"`
}

// ApplyTo returns l with the partial's set fields written over it.
func (u EdgeLabelUpdate) ApplyTo(l EdgeLabel) EdgeLabel {
	out := cloneLabel(l)
	if u.PositionOnEdge != nil {
		out.PositionOnEdge = *u.PositionOnEdge
	}
	if u.Position != nil {
		out.Position = clonePoint(u.Position)
	}
	if u.Size != nil {
		size := *u.Size
		out.Size = &size
	}
	return out
}

// Update is a patch against State. A nil field means "no operation" for that
// dimension; a non-nil empty field is present but contributes nothing.
type Update struct {
	NodesToAdd     []Node       `json:"nodesToAdd,omitempty"`
	NodesToUpdate  []NodeUpdate `json:"nodesToUpdate,omitempty"`
	NodesToRemove  []string     `json:"nodesToRemove,omitempty"`
	EdgesToAdd     []Edge       `json:"edgesToAdd,omitempty"`
	EdgesToUpdate  []EdgeUpdate `json:"edgesToUpdate,omitempty"`
	EdgesToRemove  []string     `json:"edgesToRemove,omitempty"`
	MetadataUpdate Metadata     `json:"metadataUpdate,omitempty"`
}

// IsEmpty reports whether applying the update would be a no-op.
func (u Update) IsEmpty() bool {
	return len(u.NodesToAdd) == 0 &&
		len(u.NodesToUpdate) == 0 &&
		len(u.NodesToRemove) == 0 &&
		len(u.EdgesToAdd) == 0 &&
		len(u.EdgesToUpdate) == 0 &&
		len(u.EdgesToRemove) == 0 &&
		len(u.MetadataUpdate) == 0
}

// MergeUpdates folds updates in order. List fields are concatenated without
// deduplication; metadata keys are last-write-wins. A field is present in
// the result when it is present in any input.
func MergeUpdates(updates ...Update) Update {
	var merged Update
	for _, u := range updates {
		merged.NodesToAdd = concat(merged.NodesToAdd, u.NodesToAdd)
		merged.NodesToUpdate = concat(merged.NodesToUpdate, u.NodesToUpdate)
		merged.NodesToRemove = concat(merged.NodesToRemove, u.NodesToRemove)
		merged.EdgesToAdd = concat(merged.EdgesToAdd, u.EdgesToAdd)
		merged.EdgesToUpdate = concat(merged.EdgesToUpdate, u.EdgesToUpdate)
		merged.EdgesToRemove = concat(merged.EdgesToRemove, u.EdgesToRemove)
		if u.MetadataUpdate != nil {
			if merged.MetadataUpdate == nil {
				merged.MetadataUpdate = make(Metadata, len(u.MetadataUpdate))
			}
			for k, v := range u.MetadataUpdate {
				merged.MetadataUpdate[k] = v
			}
		}
	}
	return merged
}

func concat[T any](dst, src []T) []T {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = make([]T, 0, len(src))
	}
	return append(dst, src...)
}

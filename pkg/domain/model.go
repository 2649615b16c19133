package domain

import "encoding/json"

// Point is a position in flow coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by delta.
func (p Point) Add(delta Point) Point {
	return Point{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// Size is a width/height pair in flow units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PortType declares which end of an edge a port accepts.
type PortType string

const (
	PortSource PortType = "source"
	PortTarget PortType = "target"
	PortBoth   PortType = "both"
)

// PortSide names the node side a port is attached to.
type PortSide string

const (
	SideLeft   PortSide = "left"
	SideRight  PortSide = "right"
	SideTop    PortSide = "top"
	SideBottom PortSide = "bottom"
)

// Port is a connection point on a node. Position and Size are measured by the
// renderer and are relative to the owning node.
type Port struct {
	ID       string   `json:"id"`
	Type     PortType `json:"type,omitempty"`
	Side     PortSide `json:"side,omitempty"`
	Position *Point   `json:"position,omitempty"`
	Size     *Size    `json:"size,omitempty"`
}

// EdgeLabel is a label anchored along an edge path. PositionOnEdge is the
// relative offset in [0,1].
type EdgeLabel struct {
	ID             string  `json:"id"`
	PositionOnEdge float64 `json:"positionOnEdge"`
	Position       *Point  `json:"position,omitempty"`
	Size           *Size   `json:"size,omitempty"`
}

// Node is a diagram vertex. ZIndex is derived by the z-index middleware;
// ZOrder is an optional explicit override.
type Node struct {
	ID          string         `json:"id"`
	Type        string         `json:"type,omitempty"`
	Position    Point          `json:"position"`
	Size        *Size          `json:"size,omitempty"`
	AutoSize    bool           `json:"autoSize,omitempty"`
	Resizable   bool           `json:"resizable,omitempty"`
	Angle       float64        `json:"angle,omitempty"`
	Selected    bool           `json:"selected,omitempty"`
	IsGroup     bool           `json:"isGroup,omitempty"`
	GroupID     string         `json:"groupId,omitempty"`
	Highlighted bool           `json:"highlighted,omitempty"`
	ZOrder      *int           `json:"zOrder,omitempty"`
	ZIndex      int            `json:"zIndex"`
	Ports       []Port         `json:"ports,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Edge connects two nodes, optionally through named ports. An empty Source or
// Target means the edge is dangling on that side and ends at the matching
// position instead.
type Edge struct {
	ID             string         `json:"id"`
	Source         string         `json:"source,omitempty"`
	Target         string         `json:"target,omitempty"`
	SourcePort     string         `json:"sourcePort,omitempty"`
	TargetPort     string         `json:"targetPort,omitempty"`
	Type           string         `json:"type,omitempty"`
	Points         []Point        `json:"points,omitempty"`
	SourcePosition *Point         `json:"sourcePosition,omitempty"`
	TargetPosition *Point         `json:"targetPosition,omitempty"`
	Selected       bool           `json:"selected,omitempty"`
	Temporary      bool           `json:"temporary,omitempty"`
	ZOrder         *int           `json:"zOrder,omitempty"`
	ZIndex         int            `json:"zIndex"`
	Labels         []EdgeLabel    `json:"labels,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// Viewport is the visible window onto the flow.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// TemporaryEdge is the in-progress edge drawn while the user is linking.
type TemporaryEdge struct {
	Source         string `json:"source,omitempty"`
	SourcePort     string `json:"sourcePort,omitempty"`
	SourcePosition Point  `json:"sourcePosition"`
	Target         string `json:"target,omitempty"`
	TargetPort     string `json:"targetPort,omitempty"`
	TargetPosition Point  `json:"targetPosition"`
}

// Reserved metadata keys. Middleware slices live under the middleware name.
const (
	MetadataViewport      = "viewport"
	MetadataTemporaryEdge = "temporaryEdge"
)

// Metadata carries document-level values. Values are treated as immutable;
// replace a key rather than mutating the value behind it.
type Metadata map[string]any

// Viewport returns the stored viewport or the identity viewport when unset.
func (m Metadata) Viewport() Viewport {
	if vp, ok := DecodeMetadata[Viewport](m[MetadataViewport]); ok {
		return vp
	}
	return Viewport{Scale: 1}
}

// TemporaryEdge returns the in-progress linking edge, if any.
func (m Metadata) TemporaryEdge() (TemporaryEdge, bool) {
	return DecodeMetadata[TemporaryEdge](m[MetadataTemporaryEdge])
}

// DecodeMetadata converts a metadata value to T. Values written in-process
// are T or *T; values restored from a JSON snapshot are generic maps and are
// re-decoded through JSON.
func DecodeMetadata[T any](v any) (T, bool) {
	var zero T
	switch typed := v.(type) {
	case nil:
		return zero, false
	case T:
		return typed, true
	case *T:
		if typed == nil {
			return zero, false
		}
		return *typed, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false
	}
	return out, true
}

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// State is the whole diagram model. Node and edge order is significant: it is
// the stable order used for sibling enumeration.
type State struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the state containers. Data maps are copied one
// level deep.
func (s State) Clone() State {
	out := State{
		Nodes:    make([]Node, len(s.Nodes)),
		Edges:    make([]Edge, len(s.Edges)),
		Metadata: s.Metadata.Clone(),
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = CloneNode(n)
	}
	for i, e := range s.Edges {
		out.Edges[i] = CloneEdge(e)
	}
	return out
}

// CloneNode copies the node's slices, pointers and data map.
func CloneNode(n Node) Node {
	cp := n
	if n.Size != nil {
		size := *n.Size
		cp.Size = &size
	}
	if n.ZOrder != nil {
		z := *n.ZOrder
		cp.ZOrder = &z
	}
	if n.Ports != nil {
		cp.Ports = make([]Port, len(n.Ports))
		for i, p := range n.Ports {
			cp.Ports[i] = clonePort(p)
		}
	}
	cp.Data = cloneData(n.Data)
	return cp
}

// CloneEdge copies the edge's slices, pointers and data map.
func CloneEdge(e Edge) Edge {
	cp := e
	cp.Points = append([]Point(nil), e.Points...)
	cp.SourcePosition = clonePoint(e.SourcePosition)
	cp.TargetPosition = clonePoint(e.TargetPosition)
	if e.ZOrder != nil {
		z := *e.ZOrder
		cp.ZOrder = &z
	}
	if e.Labels != nil {
		cp.Labels = make([]EdgeLabel, len(e.Labels))
		for i, l := range e.Labels {
			cp.Labels[i] = cloneLabel(l)
		}
	}
	cp.Data = cloneData(e.Data)
	return cp
}

func clonePort(p Port) Port {
	cp := p
	cp.Position = clonePoint(p.Position)
	if p.Size != nil {
		size := *p.Size
		cp.Size = &size
	}
	return cp
}

func cloneLabel(l EdgeLabel) EdgeLabel {
	cp := l
	cp.Position = clonePoint(l.Position)
	if l.Size != nil {
		size := *l.Size
		cp.Size = &size
	}
	return cp
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneData(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Ptr returns a pointer to v. It keeps partial-update literals short.
func Ptr[T any](v T) *T {
	return &v
}

package core

import (
	"math"
	"sort"

	"diagramcore/pkg/domain"
)

// ZIndexConfig is the metadata slice owned by the z-index middleware.
type ZIndexConfig struct {
	Enabled                  bool `json:"enabled"`
	SelectedZIndex           int  `json:"selectedZIndex"`
	ElevateOnSelection       bool `json:"elevateOnSelection"`
	EdgesAboveConnectedNodes bool `json:"edgesAboveConnectedNodes"`
}

// DefaultZIndexConfig returns the built-in z-index settings.
func DefaultZIndexConfig() ZIndexConfig {
	return ZIndexConfig{
		Enabled:            true,
		SelectedZIndex:     1000,
		ElevateOnSelection: true,
	}
}

// NoFloor passed as the floor leaves the root's zIndex unconstrained.
const NoFloor = math.MinInt

// ZAssignment is one computed zIndex.
type ZAssignment struct {
	ID     string
	ZIndex int
}

type zAssigner struct {
	cfg     ZIndexConfig
	lookup  *domain.Lookup
	visited map[string]struct{}
	out     []ZAssignment
}

// AssignNodeZIndex numbers root and its descendants depth first. The root
// resolves to its zOrder, or selectedZIndex when selected under elevation, or
// base. Children of a group are visited in ascending zOrder with elevated
// children last; each takes the running maximum plus one as its base, so every
// descendant ends above its group and sibling subtrees never overlap. A child
// override below that floor is raised to it, whatever its sign. Pass NoFloor
// for a root without a group.
func AssignNodeZIndex(lookup *domain.Lookup, cfg ZIndexConfig, root domain.Node, base, floor int) []ZAssignment {
	a := &zAssigner{cfg: cfg, lookup: lookup, visited: make(map[string]struct{})}
	a.assign(root, base, floor)
	return a.out
}

// FullNodeZIndex recomputes every node, starting at base 0 from each root.
// Nodes whose group is missing count as roots.
func FullNodeZIndex(state domain.State, cfg ZIndexConfig) []ZAssignment {
	lookup := domain.NewLookup(state)
	a := &zAssigner{cfg: cfg, lookup: lookup, visited: make(map[string]struct{})}
	for _, n := range state.Nodes {
		if n.GroupID != "" {
			if _, ok := lookup.Node(n.GroupID); ok {
				continue
			}
		}
		a.assign(n, 0, NoFloor)
	}
	return a.out
}

func (a *zAssigner) assign(n domain.Node, base, floor int) int {
	if _, seen := a.visited[n.ID]; seen {
		return base
	}
	a.visited[n.ID] = struct{}{}

	z := a.resolve(n, base)
	z = max(z, floor)
	a.out = append(a.out, ZAssignment{ID: n.ID, ZIndex: z})

	current := z
	if !n.IsGroup {
		return current
	}
	for _, child := range a.orderedChildren(n.ID) {
		current = a.assign(child, current+1, current+1)
	}
	return current
}

func (a *zAssigner) resolve(n domain.Node, base int) int {
	if n.ZOrder != nil {
		return *n.ZOrder
	}
	if a.elevated(n) {
		return a.cfg.SelectedZIndex
	}
	return base
}

func (a *zAssigner) elevated(n domain.Node) bool {
	return n.Selected && a.cfg.ElevateOnSelection
}

func (a *zAssigner) orderedChildren(groupID string) []domain.Node {
	children := a.lookup.Children(groupID)
	sort.SliceStable(children, func(i, j int) bool {
		ei, ej := a.elevated(children[i]), a.elevated(children[j])
		if ei != ej {
			return !ei
		}
		return zOrderKey(children[i].ZOrder) < zOrderKey(children[j].ZOrder)
	})
	return children
}

func zOrderKey(z *int) int {
	if z == nil {
		return 0
	}
	return *z
}

// NodeBase returns the structural base for n: its group's zIndex plus one, or
// 0 at root level. The second result is the floor that keeps n above its group
// (NoFloor at root level).
func NodeBase(lookup *domain.Lookup, n domain.Node) (base, floor int) {
	if n.GroupID == "" {
		return 0, NoFloor
	}
	parent, ok := lookup.Node(n.GroupID)
	if !ok {
		return 0, NoFloor
	}
	return parent.ZIndex + 1, parent.ZIndex + 1
}

// EdgeZIndex computes e's zIndex: its zOrder, else selectedZIndex when selected
// under elevation, else the higher endpoint zIndex. A missing endpoint counts
// as 0.
func EdgeZIndex(lookup *domain.Lookup, cfg ZIndexConfig, e domain.Edge) int {
	if e.ZOrder != nil {
		return *e.ZOrder
	}
	if e.Selected && cfg.ElevateOnSelection {
		return cfg.SelectedZIndex
	}
	z := max(endpointZIndex(lookup, e.Source), endpointZIndex(lookup, e.Target))
	if cfg.EdgesAboveConnectedNodes {
		z++
	}
	return z
}

func endpointZIndex(lookup *domain.Lookup, nodeID string) int {
	if nodeID == "" {
		return 0
	}
	n, ok := lookup.Node(nodeID)
	if !ok {
		return 0
	}
	return n.ZIndex
}

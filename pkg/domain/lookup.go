package domain

// Lookup indexes a State snapshot for id access and relationship queries. It
// is read-only and reflects the snapshot it was built from.
type Lookup struct {
	nodes     map[string]Node
	edges     map[string]Edge
	nodeOrder map[string]int
	children  map[string][]string
	connected map[string][]string
}

// NewLookup builds the indices for state.
func NewLookup(state State) *Lookup {
	l := &Lookup{
		nodes:     make(map[string]Node, len(state.Nodes)),
		edges:     make(map[string]Edge, len(state.Edges)),
		nodeOrder: make(map[string]int, len(state.Nodes)),
		children:  make(map[string][]string),
		connected: make(map[string][]string),
	}
	for i, n := range state.Nodes {
		l.nodes[n.ID] = n
		l.nodeOrder[n.ID] = i
		if n.GroupID != "" {
			l.children[n.GroupID] = append(l.children[n.GroupID], n.ID)
		}
	}
	for _, e := range state.Edges {
		l.edges[e.ID] = e
		if e.Source != "" {
			l.connected[e.Source] = append(l.connected[e.Source], e.ID)
		}
		if e.Target != "" && e.Target != e.Source {
			l.connected[e.Target] = append(l.connected[e.Target], e.ID)
		}
	}
	return l
}

// Node returns the node with id.
func (l *Lookup) Node(id string) (Node, bool) {
	n, ok := l.nodes[id]
	return n, ok
}

// Edge returns the edge with id.
func (l *Lookup) Edge(id string) (Edge, bool) {
	e, ok := l.edges[id]
	return e, ok
}

// NodeIndex returns the position of id in the snapshot's node list, or -1.
func (l *Lookup) NodeIndex(id string) int {
	if i, ok := l.nodeOrder[id]; ok {
		return i
	}
	return -1
}

// Children returns the direct children of groupID in snapshot order.
func (l *Lookup) Children(groupID string) []Node {
	ids := l.children[groupID]
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.nodes[id])
	}
	return out
}

// Descendants returns every node nested under groupID, depth first in
// snapshot order. Cycles are cut at the first revisit.
func (l *Lookup) Descendants(groupID string) []Node {
	var out []Node
	seen := map[string]struct{}{groupID: {}}
	var walk func(id string)
	walk = func(id string) {
		for _, childID := range l.children[id] {
			if _, ok := seen[childID]; ok {
				continue
			}
			seen[childID] = struct{}{}
			out = append(out, l.nodes[childID])
			walk(childID)
		}
	}
	walk(groupID)
	return out
}

// Ancestors returns the group chain above id, nearest first. Missing groups
// end the chain.
func (l *Lookup) Ancestors(id string) []Node {
	var out []Node
	seen := map[string]struct{}{id: {}}
	n, ok := l.nodes[id]
	for ok && n.GroupID != "" {
		if _, loop := seen[n.GroupID]; loop {
			break
		}
		seen[n.GroupID] = struct{}{}
		n, ok = l.nodes[n.GroupID]
		if ok {
			out = append(out, n)
		}
	}
	return out
}

// IsAncestor reports whether ancestorID is somewhere above id.
func (l *Lookup) IsAncestor(ancestorID, id string) bool {
	for _, a := range l.Ancestors(id) {
		if a.ID == ancestorID {
			return true
		}
	}
	return false
}

// ConnectedEdges returns edges that start or end at nodeID.
func (l *Lookup) ConnectedEdges(nodeID string) []Edge {
	ids := l.connected[nodeID]
	out := make([]Edge, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.edges[id])
	}
	return out
}

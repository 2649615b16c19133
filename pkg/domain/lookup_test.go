package domain

import "testing"

func nestedState() State {
	return State{
		Nodes: []Node{
			{ID: "g", IsGroup: true},
			{ID: "inner", IsGroup: true, GroupID: "g"},
			{ID: "leaf", GroupID: "inner"},
			{ID: "sibling", GroupID: "g"},
			{ID: "loose"},
		},
		Edges: []Edge{
			{ID: "e1", Source: "leaf", Target: "loose"},
			{ID: "self", Source: "loose", Target: "loose"},
		},
	}
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestLookupRelationships(t *testing.T) {
	l := NewLookup(nestedState())
	if got := ids(l.Children("g")); len(got) != 2 || got[0] != "inner" || got[1] != "sibling" {
		t.Fatalf("children of g: %v", got)
	}
	if got := ids(l.Descendants("g")); len(got) != 3 || got[0] != "inner" || got[1] != "leaf" || got[2] != "sibling" {
		t.Fatalf("descendants of g: %v", got)
	}
	if got := ids(l.Ancestors("leaf")); len(got) != 2 || got[0] != "inner" || got[1] != "g" {
		t.Fatalf("ancestors of leaf: %v", got)
	}
	if !l.IsAncestor("g", "leaf") || l.IsAncestor("leaf", "g") {
		t.Fatalf("ancestor checks wrong")
	}
	if l.NodeIndex("loose") != 4 || l.NodeIndex("nope") != -1 {
		t.Fatalf("node index wrong")
	}
	if got := l.ConnectedEdges("loose"); len(got) != 2 {
		t.Fatalf("expected two edges at loose (self loop counted once), got %d", len(got))
	}
}

func TestLookupCutsGroupCycles(t *testing.T) {
	l := NewLookup(State{Nodes: []Node{
		{ID: "a", IsGroup: true, GroupID: "b"},
		{ID: "b", IsGroup: true, GroupID: "a"},
	}})
	if got := l.Descendants("a"); len(got) != 1 {
		t.Fatalf("expected cycle to be cut, got %v", ids(got))
	}
	if got := l.Ancestors("a"); len(got) != 1 {
		t.Fatalf("expected cycle to be cut, got %v", ids(got))
	}
}

func TestLookupMissingGroupEndsChain(t *testing.T) {
	l := NewLookup(State{Nodes: []Node{{ID: "orphan", GroupID: "gone"}}})
	if got := l.Ancestors("orphan"); len(got) != 0 {
		t.Fatalf("expected no ancestors, got %v", ids(got))
	}
}

package domain

// Apply is the model-apply stage: it folds u into state and returns the new
// state, leaving the input untouched. Conflicts inside u resolve in a fixed
// order: additions first (an id that already exists is replaced in place),
// then per-id updates in list order, then removals. Updates for unknown ids
// are dropped. A nil metadata value deletes the key.
func Apply(state State, u Update) State {
	out := State{
		Nodes:    applyNodes(state.Nodes, u),
		Edges:    applyEdges(state.Edges, u),
		Metadata: state.Metadata.Clone(),
	}
	if len(u.MetadataUpdate) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(Metadata, len(u.MetadataUpdate))
		}
		for k, v := range u.MetadataUpdate {
			if v == nil {
				delete(out.Metadata, k)
				continue
			}
			out.Metadata[k] = v
		}
	}
	return out
}

func applyNodes(current []Node, u Update) []Node {
	nodes := make([]Node, len(current), len(current)+len(u.NodesToAdd))
	index := make(map[string]int, len(current))
	for i, n := range current {
		nodes[i] = n
		index[n.ID] = i
	}
	for _, n := range u.NodesToAdd {
		if i, ok := index[n.ID]; ok {
			nodes[i] = CloneNode(n)
			continue
		}
		index[n.ID] = len(nodes)
		nodes = append(nodes, CloneNode(n))
	}
	for _, upd := range u.NodesToUpdate {
		i, ok := index[upd.ID]
		if !ok {
			continue
		}
		nodes[i] = upd.ApplyTo(nodes[i])
	}
	if len(u.NodesToRemove) == 0 {
		return nodes
	}
	removed := toSet(u.NodesToRemove)
	kept := nodes[:0]
	for _, n := range nodes {
		if _, drop := removed[n.ID]; drop {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

func applyEdges(current []Edge, u Update) []Edge {
	edges := make([]Edge, len(current), len(current)+len(u.EdgesToAdd))
	index := make(map[string]int, len(current))
	for i, e := range current {
		edges[i] = e
		index[e.ID] = i
	}
	for _, e := range u.EdgesToAdd {
		if i, ok := index[e.ID]; ok {
			edges[i] = CloneEdge(e)
			continue
		}
		index[e.ID] = len(edges)
		edges = append(edges, CloneEdge(e))
	}
	for _, upd := range u.EdgesToUpdate {
		i, ok := index[upd.ID]
		if !ok {
			continue
		}
		edges[i] = upd.ApplyTo(edges[i])
	}
	if len(u.EdgesToRemove) == 0 {
		return edges
	}
	removed := toSet(u.EdgesToRemove)
	kept := edges[:0]
	for _, e := range edges {
		if _, drop := removed[e.ID]; drop {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

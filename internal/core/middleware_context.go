package core

import "diagramcore/pkg/domain"

// MiddlewareContext is the read-only view a middleware executes against.
// State is the tentative state: the pre-cycle state with the merged patch
// and every earlier middleware's contribution applied.
type MiddlewareContext struct {
	InitialState  domain.State
	State         domain.State
	InitialUpdate domain.Update
	ActionType    domain.ActionType
	// History holds the patches applied so far in this cycle, merged
	// transaction first.
	History []domain.Update

	name          string
	lookup        *domain.Lookup
	initialLookup *domain.Lookup
}

// Name returns the executing middleware's name.
func (mc *MiddlewareContext) Name() string { return mc.name }

// Lookup indexes the tentative state.
func (mc *MiddlewareContext) Lookup() *domain.Lookup {
	if mc.lookup == nil {
		mc.lookup = domain.NewLookup(mc.State)
	}
	return mc.lookup
}

// InitialLookup indexes the pre-cycle state.
func (mc *MiddlewareContext) InitialLookup() *domain.Lookup {
	if mc.initialLookup == nil {
		mc.initialLookup = domain.NewLookup(mc.InitialState)
	}
	return mc.initialLookup
}

// Metadata returns the executing middleware's own slice, metadata[Name()].
func (mc *MiddlewareContext) Metadata() any {
	return mc.State.Metadata[mc.name]
}

// MetadataOf returns the slice stored under another middleware's name.
func (mc *MiddlewareContext) MetadataOf(name string) any {
	return mc.State.Metadata[name]
}

// MetadataAs decodes the slice stored under name into T.
func MetadataAs[T any](mc *MiddlewareContext, name string) (T, bool) {
	return domain.DecodeMetadata[T](mc.State.Metadata[name])
}

// NodePropsChanged reports whether any patch in the cycle so far sets one of
// props on an existing node.
func (mc *MiddlewareContext) NodePropsChanged(props ...domain.Property) bool {
	for _, u := range mc.History {
		for _, nu := range u.NodesToUpdate {
			if hasAny(nu.Has, props) {
				return true
			}
		}
	}
	return false
}

// EdgePropsChanged reports whether any patch in the cycle so far sets one of
// props on an existing edge.
func (mc *MiddlewareContext) EdgePropsChanged(props ...domain.Property) bool {
	for _, u := range mc.History {
		for _, eu := range u.EdgesToUpdate {
			if hasAny(eu.Has, props) {
				return true
			}
		}
	}
	return false
}

// AffectedNodeIDs lists node ids updated with any of props, in first-seen
// order. With no props it lists every updated or added node.
func (mc *MiddlewareContext) AffectedNodeIDs(props ...domain.Property) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, u := range mc.History {
		if len(props) == 0 {
			for _, n := range u.NodesToAdd {
				add(n.ID)
			}
		}
		for _, nu := range u.NodesToUpdate {
			if len(props) == 0 || hasAny(nu.Has, props) {
				add(nu.ID)
			}
		}
	}
	return out
}

// AffectedEdgeIDs is AffectedNodeIDs for edges.
func (mc *MiddlewareContext) AffectedEdgeIDs(props ...domain.Property) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, u := range mc.History {
		if len(props) == 0 {
			for _, e := range u.EdgesToAdd {
				add(e.ID)
			}
		}
		for _, eu := range u.EdgesToUpdate {
			if len(props) == 0 || hasAny(eu.Has, props) {
				add(eu.ID)
			}
		}
	}
	return out
}

// AddedNodes returns nodes added during the cycle.
func (mc *MiddlewareContext) AddedNodes() []domain.Node {
	var out []domain.Node
	for _, u := range mc.History {
		out = append(out, u.NodesToAdd...)
	}
	return out
}

// AddedEdges returns edges added during the cycle.
func (mc *MiddlewareContext) AddedEdges() []domain.Edge {
	var out []domain.Edge
	for _, u := range mc.History {
		out = append(out, u.EdgesToAdd...)
	}
	return out
}

// RemovedNodeIDs returns ids of nodes removed during the cycle.
func (mc *MiddlewareContext) RemovedNodeIDs() []string {
	var out []string
	for _, u := range mc.History {
		out = append(out, u.NodesToRemove...)
	}
	return out
}

// RemovedEdgeIDs returns ids of edges removed during the cycle.
func (mc *MiddlewareContext) RemovedEdgeIDs() []string {
	var out []string
	for _, u := range mc.History {
		out = append(out, u.EdgesToRemove...)
	}
	return out
}

// MetadataChanged reports whether key was written during the cycle.
func (mc *MiddlewareContext) MetadataChanged(key string) bool {
	for _, u := range mc.History {
		if _, ok := u.MetadataUpdate[key]; ok {
			return true
		}
	}
	return false
}

func hasAny(has func(domain.Property) bool, props []domain.Property) bool {
	for _, p := range props {
		if has(p) {
			return true
		}
	}
	return false
}

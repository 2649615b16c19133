package core

import (
	"sync"

	"diagramcore/pkg/domain"
)

// Clipboard holds copied entities. Edges are kept only when both endpoints
// were copied.
type Clipboard struct {
	Nodes []domain.Node
	Edges []domain.Edge
}

// EditorState is per-document interaction state that is not part of the
// model: the clipboard and the group currently highlighted as a drop target.
type EditorState struct {
	mu               sync.Mutex
	clipboard        Clipboard
	highlightedGroup string
}

// NewEditorState returns empty editor state.
func NewEditorState() *EditorState {
	return &EditorState{}
}

// Clipboard returns a copy of the clipboard contents.
func (s *EditorState) Clipboard() Clipboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneClipboard(s.clipboard)
}

// SetClipboard replaces the clipboard contents.
func (s *EditorState) SetClipboard(c Clipboard) {
	s.mu.Lock()
	s.clipboard = cloneClipboard(c)
	s.mu.Unlock()
}

// HighlightedGroup returns the highlighted group id, or "".
func (s *EditorState) HighlightedGroup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlightedGroup
}

// SetHighlightedGroup records id as highlighted and returns the previous one.
func (s *EditorState) SetHighlightedGroup(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.highlightedGroup
	s.highlightedGroup = id
	return prev
}

func cloneClipboard(c Clipboard) Clipboard {
	out := Clipboard{
		Nodes: make([]domain.Node, len(c.Nodes)),
		Edges: make([]domain.Edge, len(c.Edges)),
	}
	for i, n := range c.Nodes {
		out.Nodes[i] = domain.CloneNode(n)
	}
	for i, e := range c.Edges {
		out.Edges[i] = domain.CloneEdge(e)
	}
	return out
}

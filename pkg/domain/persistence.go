package domain

import "context"

// ModelStore owns the canonical diagram state. The engine reads it once at
// the start of an apply cycle and replaces it once per committed cycle.
type ModelStore interface {
	GetState(ctx context.Context) (State, error)
	SetState(ctx context.Context, state State) error
}

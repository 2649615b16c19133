package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"diagramcore/pkg/domain"
)

var (
	// ErrNilMiddleware is returned when registering a nil middleware.
	ErrNilMiddleware = errors.New("middleware is nil")
	// ErrMiddlewareExists is returned when a middleware name is already registered.
	ErrMiddlewareExists = errors.New("middleware already registered")
)

// MiddlewareError wraps an error returned by a middleware.
type MiddlewareError struct {
	Middleware string
	Err        error
}

func (e MiddlewareError) Error() string {
	return fmt.Sprintf("middleware %s: %v", e.Middleware, e.Err)
}

func (e MiddlewareError) Unwrap() error { return e.Err }

// Outcome is what a middleware hands back to the chain driver.
type Outcome struct {
	cancel bool
	update domain.Update
}

// Next forwards control, optionally contributing one more patch.
func Next(update ...domain.Update) Outcome {
	return Outcome{update: domain.MergeUpdates(update...)}
}

// Cancel vetoes the whole cycle. Nothing from the cycle is committed.
func Cancel() Outcome {
	return Outcome{cancel: true}
}

// Cancelled reports whether the outcome vetoes the cycle.
func (o Outcome) Cancelled() bool { return o.cancel }

// Update returns the patch contributed with Next.
func (o Outcome) Update() domain.Update { return o.update }

// Middleware is a named stage of the apply pipeline.
type Middleware interface {
	Name() string
	Execute(ctx context.Context, mc *MiddlewareContext) (Outcome, error)
}

// MetadataDefaulter is implemented by middlewares that own a metadata slice.
// The default is merged into metadata[Name()] when the slice is absent.
type MetadataDefaulter interface {
	DefaultMetadata() any
}

type funcMiddleware struct {
	name string
	fn   func(ctx context.Context, mc *MiddlewareContext) (Outcome, error)
}

func (m funcMiddleware) Name() string { return m.name }

func (m funcMiddleware) Execute(ctx context.Context, mc *MiddlewareContext) (Outcome, error) {
	return m.fn(ctx, mc)
}

// MiddlewareFunc adapts fn into a Middleware named name.
func MiddlewareFunc(name string, fn func(ctx context.Context, mc *MiddlewareContext) (Outcome, error)) Middleware {
	return funcMiddleware{name: name, fn: fn}
}

// MiddlewareChain runs middlewares in registration order.
type MiddlewareChain struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewMiddlewareChain constructs a chain holding mws in order.
func NewMiddlewareChain(mws ...Middleware) (*MiddlewareChain, error) {
	c := &MiddlewareChain{}
	for _, mw := range mws {
		if err := c.Register(mw); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register appends mw to the chain.
func (c *MiddlewareChain) Register(mw Middleware) error {
	if mw == nil {
		return ErrNilMiddleware
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.middlewares {
		if existing.Name() == mw.Name() {
			return fmt.Errorf("%w: %s", ErrMiddlewareExists, mw.Name())
		}
	}
	c.middlewares = append(c.middlewares, mw)
	return nil
}

// Unregister removes the middleware called name and reports whether it was present.
func (c *MiddlewareChain) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, mw := range c.middlewares {
		if mw.Name() == name {
			c.middlewares = append(c.middlewares[:i:i], c.middlewares[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns registered middleware names in run order.
func (c *MiddlewareChain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.middlewares))
	for i, mw := range c.middlewares {
		out[i] = mw.Name()
	}
	return out
}

// ChainInput is the merged result of a closed transaction.
type ChainInput struct {
	State  domain.State
	Update domain.Update
	Action domain.ActionType
}

// ChainResult carries the composite patch and the state it produces.
type ChainResult struct {
	Update      domain.Update
	State       domain.State
	Cancelled   bool
	CancelledBy string
}

// Run drives the chain. Each middleware sees the tentative state produced by
// everything before it. When a middleware cancels, the result holds the
// untouched input state and an empty update.
func (c *MiddlewareChain) Run(ctx context.Context, in ChainInput) (ChainResult, error) {
	c.mu.RLock()
	mws := append([]Middleware(nil), c.middlewares...)
	c.mu.RUnlock()

	composite := domain.MergeUpdates(metadataDefaults(in.State, mws), in.Update)
	state := domain.Apply(in.State, composite)
	history := []domain.Update{composite}

	for _, mw := range mws {
		mc := &MiddlewareContext{
			InitialState:  in.State,
			State:         state,
			InitialUpdate: in.Update,
			ActionType:    in.Action,
			History:       history,
			name:          mw.Name(),
		}
		out, err := mw.Execute(ctx, mc)
		if err != nil {
			return ChainResult{}, MiddlewareError{Middleware: mw.Name(), Err: err}
		}
		if out.cancel {
			return ChainResult{State: in.State, Cancelled: true, CancelledBy: mw.Name()}, nil
		}
		if out.update.IsEmpty() {
			continue
		}
		composite = domain.MergeUpdates(composite, out.update)
		state = domain.Apply(state, out.update)
		history = append(history, out.update)
	}
	return ChainResult{Update: composite, State: state}, nil
}

func metadataDefaults(state domain.State, mws []Middleware) domain.Update {
	var u domain.Update
	for _, mw := range mws {
		d, ok := mw.(MetadataDefaulter)
		if !ok {
			continue
		}
		if _, present := state.Metadata[mw.Name()]; present {
			continue
		}
		def := d.DefaultMetadata()
		if def == nil {
			continue
		}
		if u.MetadataUpdate == nil {
			u.MetadataUpdate = domain.Metadata{}
		}
		u.MetadataUpdate[mw.Name()] = def
	}
	return u
}

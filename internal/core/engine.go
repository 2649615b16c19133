package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"diagramcore/pkg/domain"
)

// Observed operation names.
const (
	OpApplyCycle = "apply_cycle"
	OpStoreGet   = "store_get"
	OpStoreSet   = "store_set"
	opEmitPrefix = "emit:"
)

type cycleKey struct{}

// Engine orchestrates the apply cycle: commands are dispatched to listeners,
// listeners queue patches into the open transaction, and closing the
// outermost transaction runs the merged patch through the middleware chain
// and commits it to the store.
//
// Top-level calls are serialized. Calls made with a context derived from an
// open cycle (listeners, middleware-free helpers, Transaction callbacks) join
// that cycle instead of opening another one.
type Engine struct {
	store      domain.ModelStore
	opts       engineOptions
	dispatcher *Dispatcher
	tx         *TransactionManager
	chain      *MiddlewareChain
	editor     *EditorState
	batcher    *Batcher[Measurement]

	gate sync.Mutex
}

// NewEngine wires an engine around store. The built-in command table is
// registered on the dispatcher, followed by the z-index middlewares unless
// WithoutDefaultMiddlewares is given.
func NewEngine(store domain.ModelStore, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("model store is nil")
	}
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var mws []Middleware
	if o.defaultMiddlewares {
		mws = append(mws, NewZIndexMiddleware(o.zIndex), NewEdgeZIndexMiddleware(o.zIndex))
	}
	mws = append(mws, o.middlewares...)
	chain, err := NewMiddlewareChain(mws...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:      store,
		opts:       o,
		dispatcher: NewDispatcher(o.fanOut),
		tx:         NewTransactionManager(),
		chain:      chain,
		editor:     NewEditorState(),
	}
	for _, entry := range builtinCommands {
		handler := entry.handler
		e.dispatcher.Register(entry.name, func(ctx context.Context, cmd domain.Command) error {
			return handler(ctx, e, cmd)
		})
	}
	e.batcher = NewBatcher(o.batchWindow, e.flushMeasurements)
	return e, nil
}

// Emit dispatches cmd to every listener registered for its name.
func (e *Engine) Emit(ctx context.Context, cmd domain.Command) (err error) {
	if cmd == nil {
		return errors.New("command is nil")
	}
	op := opEmitPrefix + string(cmd.CommandName())
	started := time.Now()
	ctx, span := e.opts.tracer.Start(ctx, op)
	defer func() {
		span.End(err)
		e.opts.metrics.Observe(ctx, op, err == nil, time.Since(started))
	}()
	return e.dispatcher.Emit(ctx, cmd)
}

// On registers an additional listener for name and returns its unregister func.
// Listeners that emit or apply updates must pass on the ctx they receive;
// a fresh context inside a running cycle blocks on the cycle gate.
func (e *Engine) On(name domain.Name, fn Listener) func() {
	return e.dispatcher.Register(name, fn)
}

// Init emits the init command, which recomputes every derived value.
func (e *Engine) Init(ctx context.Context) error {
	return e.Emit(ctx, domain.Init{})
}

// ApplyUpdate queues update into the open cycle, or runs a cycle of its own
// when called outside one.
func (e *Engine) ApplyUpdate(ctx context.Context, update domain.Update, action domain.ActionType) error {
	if e.inCycle(ctx) {
		return e.tx.Queue(update, action)
	}
	return e.Transaction(ctx, action, func(ctx context.Context) error {
		return e.tx.Queue(update, action)
	})
}

// Transaction runs fn with one transaction open and commits everything fn
// queued as a single cycle. The cycle's action is label, or the action of the
// last queued patch when label is empty. Inside an open cycle, fn joins it.
// When fn fails, nothing it queued is applied.
func (e *Engine) Transaction(ctx context.Context, label domain.ActionType, fn func(ctx context.Context) error) error {
	if e.inCycle(ctx) {
		return fn(ctx)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	if err := e.tx.Start(label); err != nil {
		return err
	}
	// fn failing or panicking leaves the transaction open; drop it either way.
	defer func() {
		if e.tx.Active() {
			e.tx.Discard()
		}
	}()
	if err := fn(context.WithValue(ctx, cycleKey{}, e)); err != nil {
		return err
	}
	res, err := e.tx.Stop()
	if err != nil {
		return err
	}
	action := label
	if action == "" {
		action = res.LastActionType
	}
	return e.runCycle(ctx, res, action)
}

func (e *Engine) inCycle(ctx context.Context) bool {
	owner, _ := ctx.Value(cycleKey{}).(*Engine)
	return owner == e
}

func (e *Engine) runCycle(ctx context.Context, res TransactionResult, action domain.ActionType) (err error) {
	started := time.Now()
	ctx, span := e.opts.tracer.Start(ctx, OpApplyCycle)
	entry := AuditEntry{Action: string(action), CommandsCount: res.CommandsCount}
	defer func() {
		span.End(err)
		e.opts.metrics.Observe(ctx, OpApplyCycle, err == nil, time.Since(started))
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
			e.opts.logger.Error("apply cycle failed", "action", string(action), "error", err)
		}
		entry.Timestamp = e.opts.clock.Now()
		e.opts.audit.Record(ctx, entry)
	}()

	e.opts.logger.Debug("apply cycle start", "action", string(action), "commands", res.CommandsCount)
	state, err := e.getState(ctx)
	if err != nil {
		return err
	}
	out, err := e.chain.Run(ctx, ChainInput{State: state, Update: res.MergedUpdate, Action: action})
	if err != nil {
		return err
	}
	if out.Cancelled {
		entry.Status = AuditStatusCancelled
		entry.CancelledBy = out.CancelledBy
		e.opts.logger.Info("apply cycle cancelled", "action", string(action), "middleware", out.CancelledBy)
		return nil
	}
	entry.Status = AuditStatusCommitted
	entry.NodesTouched, entry.EdgesTouched = touched(out.Update)
	if out.Update.IsEmpty() {
		return nil
	}
	if err := e.setState(ctx, out.State); err != nil {
		return err
	}
	e.opts.logger.Debug("apply cycle committed", "action", string(action),
		"nodes", entry.NodesTouched, "edges", entry.EdgesTouched)
	return nil
}

func touched(u domain.Update) (nodes, edges int) {
	nodeIDs := make(map[string]struct{})
	for _, n := range u.NodesToAdd {
		nodeIDs[n.ID] = struct{}{}
	}
	for _, n := range u.NodesToUpdate {
		nodeIDs[n.ID] = struct{}{}
	}
	for _, id := range u.NodesToRemove {
		nodeIDs[id] = struct{}{}
	}
	edgeIDs := make(map[string]struct{})
	for _, ed := range u.EdgesToAdd {
		edgeIDs[ed.ID] = struct{}{}
	}
	for _, ed := range u.EdgesToUpdate {
		edgeIDs[ed.ID] = struct{}{}
	}
	for _, id := range u.EdgesToRemove {
		edgeIDs[id] = struct{}{}
	}
	return len(nodeIDs), len(edgeIDs)
}

func (e *Engine) getState(ctx context.Context) (state domain.State, err error) {
	started := time.Now()
	defer func() { e.opts.metrics.Observe(ctx, OpStoreGet, err == nil, time.Since(started)) }()
	state, err = e.store.GetState(ctx)
	if err != nil {
		return domain.State{}, fmt.Errorf("get state: %w", err)
	}
	return state, nil
}

func (e *Engine) setState(ctx context.Context, state domain.State) (err error) {
	started := time.Now()
	defer func() { e.opts.metrics.Observe(ctx, OpStoreSet, err == nil, time.Since(started)) }()
	if err = e.store.SetState(ctx, state); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// State returns the committed model.
func (e *Engine) State(ctx context.Context) (domain.State, error) {
	return e.getState(ctx)
}

// EditorState returns the per-document interaction state.
func (e *Engine) EditorState() *EditorState {
	return e.editor
}

// Commands lists command names that have at least one listener.
func (e *Engine) Commands() []domain.Name {
	return e.dispatcher.Names()
}

// RegisterMiddleware appends mw to the chain.
func (e *Engine) RegisterMiddleware(mw Middleware) error {
	return e.chain.Register(mw)
}

// UnregisterMiddleware removes the middleware called name.
func (e *Engine) UnregisterMiddleware(name string) bool {
	return e.chain.Unregister(name)
}

// Middlewares lists middleware names in run order.
func (e *Engine) Middlewares() []string {
	return e.chain.Names()
}

// ConfigureMiddleware replaces the metadata slice stored under name.
func (e *Engine) ConfigureMiddleware(ctx context.Context, name string, slice any) error {
	return e.ApplyUpdate(ctx, domain.Update{
		MetadataUpdate: domain.Metadata{name: slice},
	}, domain.ActionUpdateMiddlewareMetadata)
}

// Close flushes pending measurements.
func (e *Engine) Close() {
	e.batcher.Close()
}

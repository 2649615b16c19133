package core

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"diagramcore/pkg/domain"
)

// Listener consumes an emitted command.
type Listener func(ctx context.Context, cmd domain.Command) error

type registration struct {
	fn Listener
}

// Dispatcher is a name-keyed registry of listener lists.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[domain.Name][]*registration
	limit     int
}

// NewDispatcher constructs a dispatcher whose Emit runs at most limit
// listeners at once. A limit below 1 is treated as 1, which runs listeners
// one after another in registration order.
func NewDispatcher(limit int) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{
		listeners: make(map[domain.Name][]*registration),
		limit:     limit,
	}
}

// Register appends fn to name's listeners. The returned func removes exactly
// this registration; removing the last listener clears the slot. Calling it
// more than once is a no-op.
func (d *Dispatcher) Register(name domain.Name, fn Listener) func() {
	reg := &registration{fn: fn}
	d.mu.Lock()
	d.listeners[name] = append(d.listeners[name], reg)
	d.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { d.remove(name, reg) })
	}
}

func (d *Dispatcher) remove(name domain.Name, reg *registration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	current := d.listeners[name]
	for i, r := range current {
		if r != reg {
			continue
		}
		next := make([]*registration, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(d.listeners, name)
		} else {
			d.listeners[name] = next
		}
		return
	}
}

// Emit invokes every listener registered for cmd's name at call time.
// Listeners registered during the emit do not see it. No listeners is a
// no-op. The first listener error fails the emit; listeners not yet started
// are skipped, already-finished work is kept.
func (d *Dispatcher) Emit(ctx context.Context, cmd domain.Command) error {
	d.mu.Lock()
	snapshot := append([]*registration(nil), d.listeners[cmd.CommandName()]...)
	d.mu.Unlock()
	if len(snapshot) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for _, reg := range snapshot {
		fn := reg.fn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, cmd)
		})
	}
	return g.Wait()
}

// Count returns the number of listeners registered for name.
func (d *Dispatcher) Count(name domain.Name) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[name])
}

// Names lists every command name with at least one listener, sorted.
func (d *Dispatcher) Names() []domain.Name {
	d.mu.Lock()
	names := make([]domain.Name, 0, len(d.listeners))
	for name := range d.listeners {
		names = append(names, name)
	}
	d.mu.Unlock()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

package core

import (
	"errors"
	"sync"

	"diagramcore/pkg/domain"
)

var (
	// ErrTransactionActive is returned when a transaction is started while one is open.
	ErrTransactionActive = errors.New("transaction already active")
	// ErrNoActiveTransaction is returned when queueing into or closing a transaction that is not open.
	ErrNoActiveTransaction = errors.New("no active transaction")
)

type queuedUpdate struct {
	update domain.Update
	action domain.ActionType
}

// TransactionResult is the outcome of closing a transaction.
type TransactionResult struct {
	MergedUpdate   domain.Update
	LastActionType domain.ActionType // empty when nothing was queued
	CommandsCount  int
}

// TransactionManager is a single-slot accumulation window for patches. A
// second Start while a transaction is open fails instead of waiting.
type TransactionManager struct {
	mu     sync.Mutex
	active bool
	label  domain.ActionType
	queue  []queuedUpdate
}

// NewTransactionManager returns an idle manager.
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

// Start opens a transaction tagged with label.
func (m *TransactionManager) Start(label domain.ActionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return ErrTransactionActive
	}
	m.active = true
	m.label = label
	m.queue = nil
	return nil
}

// Active reports whether a transaction is open.
func (m *TransactionManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Label returns the label of the open transaction.
func (m *TransactionManager) Label() domain.ActionType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.label
}

// Queue appends update to the open transaction.
func (m *TransactionManager) Queue(update domain.Update, action domain.ActionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return ErrNoActiveTransaction
	}
	m.queue = append(m.queue, queuedUpdate{update: update, action: action})
	return nil
}

// Stop closes the transaction and merges the queue in order. List fields are
// concatenated with no deduplication; metadata keys are last-write-wins.
func (m *TransactionManager) Stop() (TransactionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return TransactionResult{}, ErrNoActiveTransaction
	}
	updates := make([]domain.Update, len(m.queue))
	var last domain.ActionType
	for i, q := range m.queue {
		updates[i] = q.update
		last = q.action
	}
	res := TransactionResult{
		MergedUpdate:   domain.MergeUpdates(updates...),
		LastActionType: last,
		CommandsCount:  len(m.queue),
	}
	m.reset()
	return res, nil
}

// Discard closes the transaction without merging.
func (m *TransactionManager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *TransactionManager) reset() {
	m.active = false
	m.label = ""
	m.queue = nil
}

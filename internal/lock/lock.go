// Package lock provides the mutual-exclusion discipline for ledger
// mutations. The ledger is driven by one interactive session today, but
// every Issue/Return/Delete still runs under a lock so the services stay
// correct if the presentation layer ever drives them from more than one
// goroutine. A single process needs only the in-memory implementation.
package lock

import (
	"context"
	"sync"
)

// Locker serializes access to a named resource. Lock blocks until the
// lock is acquired or the context is cancelled, and returns the release
// function.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Ledger returns the global ledger lock key. One lock over the whole
// ledger is sufficient at library data volumes.
func (lockKeys) Ledger() string {
	return "lock:ledger"
}

// =============================================================================
// In-memory implementation
// =============================================================================

// MemoryLocker implements Locker with per-key in-process mutexes.
// Locks are not shared across processes; exactly one process owns the
// data at a time, so that is all that is needed.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]chan struct{}),
	}
}

// Lock blocks until the named lock is acquired or ctx is done.
func (m *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	m.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// =============================================================================
// No-op implementation
// =============================================================================

// NoOpLocker is a no-operation locker that always succeeds.
// Use this when locking is not needed (e.g., single-threaded tests).
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Lock acquires nothing and returns immediately.
func (n *NoOpLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}

// Ensure implementations satisfy Locker.
var (
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = (*NoOpLocker)(nil)
)

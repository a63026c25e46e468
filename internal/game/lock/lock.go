// Package lock provides the single read/write lock that guards a game's
// state graph.
//
// Go mutexes have no owner, so reentrancy is carried by the context: a
// successful acquisition returns a derived context recording the hold, and
// acquiring again with that context (or anything derived from it) is a no-op.
// Code that may run inside a Change's Perform, or inside another read, must
// pass the context it was given.
package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrUpgrade is the panic value when a goroutine holding only the read lock
// asks for the write lock. Waiting would deadlock.
var ErrUpgrade = errors.New("lock: cannot upgrade a held read lock to a write lock")

// Mode is the kind of hold a context carries.
type Mode int

const (
	Unlocked Mode = iota
	Read
	Write
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unlocked"
	}
}

// Release gives a hold back. Calling it more than once is harmless.
type Release func()

// RWLock is a read/write lock with context-scoped reentrancy. Once a writer
// is waiting, new readers queue behind it.
type RWLock struct {
	mu      sync.RWMutex
	writing atomic.Bool
	readers atomic.Int32
}

type holdKey struct{ l *RWLock }

// New creates an unlocked RWLock.
func New() *RWLock { return &RWLock{} }

// Held reports what ctx holds on this lock.
func (l *RWLock) Held(ctx context.Context) Mode {
	if ctx == nil {
		return Unlocked
	}
	if m, ok := ctx.Value(holdKey{l}).(Mode); ok {
		return m
	}
	return Unlocked
}

// RLock blocks until the read lock is available. If ctx already holds the
// read or the write lock, it returns immediately without locking again.
func (l *RWLock) RLock(ctx context.Context) (context.Context, Release) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.Held(ctx) != Unlocked {
		return ctx, func() {}
	}
	l.mu.RLock()
	l.readers.Add(1)
	var once sync.Once
	return context.WithValue(ctx, holdKey{l}, Read), func() {
		once.Do(func() {
			l.readers.Add(-1)
			l.mu.RUnlock()
		})
	}
}

// Lock blocks until the write lock is available. A context already holding
// the write lock re-enters; one holding only the read lock panics with
// ErrUpgrade.
func (l *RWLock) Lock(ctx context.Context) (context.Context, Release) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch l.Held(ctx) {
	case Write:
		return ctx, func() {}
	case Read:
		panic(ErrUpgrade)
	}
	l.mu.Lock()
	l.writing.Store(true)
	var once sync.Once
	return context.WithValue(ctx, holdKey{l}, Write), func() {
		once.Do(func() {
			l.writing.Store(false)
			l.mu.Unlock()
		})
	}
}

// IsWriteLocked reports whether any goroutine currently holds the write lock.
func (l *RWLock) IsWriteLocked() bool { return l.writing.Load() }

// ReadHolders is the number of outstanding read holds.
func (l *RWLock) ReadHolders() int { return int(l.readers.Load()) }

package state

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// subscription is a (callback, store) pair. The active flag lets a cancelled
// subscription be skipped even if the current notification cycle already
// copied the subscriber list.
type subscription struct {
	id     uint64
	fn     func()
	active atomic.Bool
}

// Store is a reactive snapshot container.
// Set replaces the snapshot and synchronously notifies every subscriber;
// subscribers call Get themselves so all of them observe the same value.
type Store[T any] struct {
	mu    sync.RWMutex
	value T

	// subMu protects the subs slice.
	subMu sync.Mutex
	subs  []*subscription

	nextID atomic.Uint64

	logger *slog.Logger
}

// New creates a store holding the given initial snapshot.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value:  initial,
		logger: slog.Default(),
	}
}

// WithLogger returns the store configured to report subscriber panics
// through the given logger.
func (s *Store[T]) WithLogger(l *slog.Logger) *Store[T] {
	if l != nil {
		s.logger = l
	}
	return s
}

// Get returns the current snapshot. It never blocks on subscribers.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the snapshot and notifies all currently-registered
// subscribers before returning. Subscribers registered during the
// notification cycle are not invoked for the cycle already underway.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	s.notify()
}

// Update atomically replaces the snapshot with fn(current), then notifies
// once. Setters that must change several fields together (derived-state
// rules) go through Update so no subscriber observes a half-applied change.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()

	s.notify()
}

// UpdateIf is Update for conditional setters: fn returns the next snapshot
// and whether anything changed. When it reports false the snapshot is left
// untouched and no notification fires, so set-semantics operations
// (add-if-absent, remove-if-present) stay silent no-ops.
func (s *Store[T]) UpdateIf(fn func(T) (T, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.value)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

// Patch shallow-merges into the snapshot: it copies the current value, lets
// fn mutate fields of the copy, and installs the copy as the new snapshot.
// Nested pointers, slices, and maps that fn does not reassign are carried by
// reference; callers that need a private nested value must clone it
// explicitly.
func (s *Store[T]) Patch(fn func(*T)) {
	s.mu.Lock()
	next := s.value
	fn(&next)
	s.value = next
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers fn to run after every snapshot replacement. The
// returned cancel function removes exactly this subscription; after cancel
// returns, fn is never invoked again.
func (s *Store[T]) Subscribe(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{
		id: s.nextID.Add(1),
		fn: fn,
	}
	sub.active.Store(true)

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() {
		sub.active.Store(false)
		s.subMu.Lock()
		for i, existing := range s.subs {
			if existing.id == sub.id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.subMu.Unlock()
	}
}

// notify invokes all subscribers registered at the start of the cycle.
// Copy-before-notify: mutations to the subscriber set during the cycle do
// not affect the iteration, and cancelled subscriptions are skipped via the
// active flag.
func (s *Store[T]) notify() {
	s.subMu.Lock()
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		s.invoke(sub)
	}
}

// invoke runs one subscriber callback in isolation. A panicking subscriber
// is logged and must not prevent the remaining subscribers in the same
// cycle from running, nor propagate to the caller of Set.
func (s *Store[T]) invoke(sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store subscriber panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	sub.fn()
}

// Len returns the number of registered subscriptions.
func (s *Store[T]) Len() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

package wire

import (
	"sync"
	"sync/atomic"
)

// cache is a lazily-computed, concurrency-safe value with explicit
// release/acquire semantics (spec §5, §9): Get publishes a freshly computed
// value behind a Store on the validity flag (release), and every reader
// checks that flag with a Load (acquire) before trusting the payload. This
// is the one place sync/atomic is the right primitive — no pack dependency
// models a release/acquire scalar flag better than the standard library
// (see DESIGN.md).
type cache[T any] struct {
	valid atomic.Bool
	mu    sync.Mutex
	value T
}

// Get returns the cached value, computing and publishing it exactly once
// if it isn't already valid. Concurrent callers during the first
// computation block on mu rather than racing to recompute.
func (c *cache[T]) Get(compute func() T) T {
	if c.valid.Load() {
		return c.value
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid.Load() {
		return c.value
	}
	c.value = compute()
	c.valid.Store(true)
	return c.value
}

// Invalidate clears the flag so the next Get recomputes. Must be called on
// every mutation path before the mutated state becomes visible to other
// goroutines holding a reference to the same transaction.
func (c *cache[T]) Invalidate() {
	c.valid.Store(false)
}

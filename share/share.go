// Package share provides a single-slot value handed from one task to another.
//
// Tasks only interleave at scheduler yield points, but an interrupt handler may still preempt a
// read or write half way, so every access runs inside a critical section supplied by the caller:
// interrupt masking on the microcontroller, a mutex on the host.
package share

import "sync"

type slot[T any] struct {
	name    string
	guard   sync.Locker
	value   T
	updated bool
}

// Writer is the only handle that can Put
type Writer[T any] struct {
	s *slot[T]
}

// Reader is the only handle that can Get
type Reader[T any] struct {
	s *slot[T]
}

// New creates a shared value and returns its single writer and single reader. A nil guard uses a
// sync.Mutex.
func New[T any](name string, guard sync.Locker) (*Writer[T], *Reader[T]) {
	if guard == nil {
		guard = &sync.Mutex{}
	}
	s := &slot[T]{name: name, guard: guard}
	return &Writer[T]{s: s}, &Reader[T]{s: s}
}

// Put replaces the stored value
func (w *Writer[T]) Put(v T) {
	w.s.guard.Lock()
	w.s.value = v
	w.s.updated = true
	w.s.guard.Unlock()
}

func (w *Writer[T]) Name() string {
	return w.s.name
}

// Get returns the last value written, or the zero value before the first Put. It never blocks.
func (r *Reader[T]) Get() T {
	r.s.guard.Lock()
	v := r.s.value
	r.s.updated = false
	r.s.guard.Unlock()
	return v
}

// Updated reports whether Put has been called since the last Get
func (r *Reader[T]) Updated() bool {
	r.s.guard.Lock()
	u := r.s.updated
	r.s.guard.Unlock()
	return u
}

func (r *Reader[T]) Name() string {
	return r.s.name
}

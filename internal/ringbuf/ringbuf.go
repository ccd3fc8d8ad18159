// Package ringbuf provides a fixed-capacity FIFO ring. Pushing into a full
// ring evicts the oldest element. It backs the rolling difference buffer of
// the signal state machine and the capped trade history.
//
// A Ring is not safe for concurrent use; its owner serialises access.
package ringbuf

// Ring is a bounded FIFO of T values.
type Ring[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int

	// Total number of elements evicted because the ring was full.
	evicted uint64
}

// New creates a ring holding at most capacity elements. Minimum capacity is 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// From creates a ring of the given capacity preloaded with values, oldest
// first. When values exceed the capacity only the newest are kept.
func From[T any](capacity int, values []T) *Ring[T] {
	r := New[T](capacity)
	for _, v := range values {
		r.Push(v)
	}
	return r
}

// Push appends v. If the ring is full the oldest element is evicted and
// returned with ok=true.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.count == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		r.evicted++
		return evicted, true
	}
	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++
	return evicted, false
}

// Last returns the newest element. ok is false when the ring is empty.
func (r *Ring[T]) Last() (v T, ok bool) {
	if r.count == 0 {
		return v, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// Values returns a copy of the contents, oldest first.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Newest returns up to n of the newest elements, newest first.
func (r *Ring[T]) Newest(n int) []T {
	if n > r.count {
		n = r.count
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(r.head+r.count-1-i)%len(r.buf)])
	}
	return out
}

// Len returns the current number of elements.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Evicted returns the total number of elements dropped to make room.
func (r *Ring[T]) Evicted() uint64 { return r.evicted }

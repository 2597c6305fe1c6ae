package effectchain

import (
	"errors"
	"fmt"
	"sync/atomic"
)

const (
	// DefaultQueueCapacity is the order queue size used when none is configured.
	DefaultQueueCapacity = 4
	// MaxQueueCapacity bounds Fifo capacities.
	MaxQueueCapacity = 1024

	cacheLineSize = 64
)

// ErrInvalidCapacity is returned for Fifo capacities outside [1, MaxQueueCapacity].
var ErrInvalidCapacity = errors.New("invalid queue capacity")

// Fifo is a bounded lock-free ring for exactly one producer goroutine and one
// consumer goroutine.
//
// Both indices count up forever and are reduced modulo the capacity on use.
// The producer writes the slot and then publishes write+1; the consumer reads
// the slot and then publishes read+1. sync/atomic operations are sequentially
// consistent, so a slot write is visible to whoever observes the index store
// that follows it.
type Fifo[T any] struct {
	_     [cacheLineSize]byte
	write atomic.Uint64
	_     [cacheLineSize - 8]byte
	read  atomic.Uint64
	_     [cacheLineSize - 8]byte

	slots []T
	size  uint64
}

// NewFifo allocates a queue holding up to capacity values.
func NewFifo[T any](capacity int) (*Fifo[T], error) {
	if capacity < 1 || capacity > MaxQueueCapacity {
		return nil, fmt.Errorf("effectchain: %w: %d not in [1, %d]", ErrInvalidCapacity, capacity, MaxQueueCapacity)
	}

	return &Fifo[T]{
		slots: make([]T, capacity),
		size:  uint64(capacity),
	}, nil
}

// Push appends v. It returns false without blocking when the queue is full.
// Only the producer may call Push.
func (f *Fifo[T]) Push(v T) bool {
	w := f.write.Load()
	r := f.read.Load()

	if w-r >= f.size {
		return false
	}

	f.slots[w%f.size] = v
	f.write.Store(w + 1)

	return true
}

// Pop removes the oldest value. It returns false without blocking when the
// queue is empty. Only the consumer may call Pop.
func (f *Fifo[T]) Pop() (T, bool) {
	var zero T

	r := f.read.Load()
	w := f.write.Load()

	if r == w {
		return zero, false
	}

	idx := r % f.size
	v := f.slots[idx]
	f.slots[idx] = zero
	f.read.Store(r + 1)

	return v, true
}

// Len returns the number of queued values. Seen from either side while the
// other is active it is a snapshot that may already be stale.
func (f *Fifo[T]) Len() int {
	r := f.read.Load()
	w := f.write.Load()

	if w < r {
		return 0
	}

	return int(w - r)
}

// Cap returns the queue capacity.
func (f *Fifo[T]) Cap() int {
	return int(f.size)
}

package buffer

import (
	"fmt"
	"sync"

	"github.com/c360/hlxmatrix/errors"
)

type circularBuffer[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write
	tail     int // next read
	above    bool
	closed   bool

	stats   *Statistics
	metrics *bufferMetrics
	opts    *bufferOptions[T]
}

func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newCircularBuffer", "metrics registration")
		}
	}

	return &circularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}, nil
}

func (cb *circularBuffer[T]) Write(item T) error {
	var (
		dropped    T
		hasDropped bool
		crossed    bool
	)

	cb.mu.Lock()
	if cb.closed {
		cb.mu.Unlock()
		return errors.WrapInvalid(errors.ErrShuttingDown, "buffer", "Write", "buffer closed")
	}

	if cb.size == cb.capacity {
		cb.stats.Overflow()
		cb.metrics.recordOverflow()
		switch cb.opts.overflowPolicy {
		case DropNewest:
			cb.stats.Drop()
			cb.metrics.recordDrop()
			cb.mu.Unlock()
			cb.dropped(item)
			return nil
		case Reject:
			cb.mu.Unlock()
			return errors.WrapTransient(fmt.Errorf("%d items buffered: %w", cb.capacity, errors.ErrOutOfMemory),
				"buffer", "Write", "append")
		default:
			dropped, hasDropped = cb.pop()
			cb.stats.Drop()
			cb.metrics.recordDrop()
		}
	}

	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++
	cb.stats.Write()
	cb.stats.UpdateSize(int64(cb.size))
	cb.metrics.recordWrite(cb.size, cb.capacity)

	if cb.opts.watermark != nil && !cb.above && cb.size >= cb.opts.high {
		cb.above = true
		crossed = true
	}
	cb.mu.Unlock()

	if hasDropped {
		cb.dropped(dropped)
	}
	if crossed {
		cb.opts.watermark(true)
	}
	return nil
}

// pop removes the oldest item. Callers hold mu.
func (cb *circularBuffer[T]) pop() (T, bool) {
	var zero T
	if cb.size == 0 {
		return zero, false
	}
	item := cb.items[cb.tail]
	cb.items[cb.tail] = zero
	cb.tail = (cb.tail + 1) % cb.capacity
	cb.size--
	return item, true
}

// drained reports a fall back to the low watermark. Callers hold mu.
func (cb *circularBuffer[T]) drained() bool {
	if cb.opts.watermark != nil && cb.above && cb.size <= cb.opts.low {
		cb.above = false
		return true
	}
	return false
}

func (cb *circularBuffer[T]) dropped(item T) {
	if cb.opts.dropCallback != nil {
		cb.opts.dropCallback(item)
	}
}

func (cb *circularBuffer[T]) Read() (T, bool) {
	cb.mu.Lock()
	item, ok := cb.pop()
	if !ok {
		cb.mu.Unlock()
		return item, false
	}
	cb.stats.Read()
	cb.stats.UpdateSize(int64(cb.size))
	cb.metrics.recordRead(cb.size, cb.capacity)
	crossed := cb.drained()
	cb.mu.Unlock()

	if crossed {
		cb.opts.watermark(false)
	}
	return item, true
}

func (cb *circularBuffer[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	cb.mu.Lock()
	if cb.size == 0 {
		cb.mu.Unlock()
		return nil
	}
	n := min(max, cb.size)
	out := make([]T, 0, n)
	for range n {
		item, _ := cb.pop()
		out = append(out, item)
		cb.stats.Read()
	}
	cb.stats.UpdateSize(int64(cb.size))
	cb.metrics.updateSize(cb.size, cb.capacity)
	crossed := cb.drained()
	cb.mu.Unlock()

	if crossed {
		cb.opts.watermark(false)
	}
	return out
}

func (cb *circularBuffer[T]) Peek() (T, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}
	cb.stats.Peek()
	return cb.items[cb.tail], true
}

func (cb *circularBuffer[T]) Size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.size
}

func (cb *circularBuffer[T]) Capacity() int { return cb.capacity }

func (cb *circularBuffer[T]) Above() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.above
}

func (cb *circularBuffer[T]) Clear() {
	cb.mu.Lock()
	var items []T
	for {
		item, ok := cb.pop()
		if !ok {
			break
		}
		items = append(items, item)
	}
	cb.head, cb.tail = 0, 0
	cb.stats.UpdateSize(0)
	cb.metrics.updateSize(0, cb.capacity)
	crossed := cb.drained()
	cb.mu.Unlock()

	for _, item := range items {
		cb.dropped(item)
	}
	if crossed {
		cb.opts.watermark(false)
	}
}

func (cb *circularBuffer[T]) Stats() *Statistics { return cb.stats }

func (cb *circularBuffer[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.closed = true
	return nil
}

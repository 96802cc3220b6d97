package buffer

// Buffer is a bounded FIFO of items of type T. Implementations are safe
// for one writer and one reader on different goroutines.
type Buffer[T any] interface {
	// Write appends item. A full buffer applies the overflow policy.
	Write(item T) error

	// Read removes and returns the oldest item, false when empty.
	Read() (T, bool)

	// ReadBatch removes up to max items, oldest first.
	ReadBatch(max int) []T

	// Peek returns the oldest item without removing it.
	Peek() (T, bool)

	Size() int
	Capacity() int

	// Above reports whether the buffer is above its high watermark and has
	// not yet drained to the low one.
	Above() bool

	// Clear drops every item.
	Clear()

	// Stats returns counters that are always collected.
	Stats() *Statistics

	// Close rejects further writes. Buffered items remain readable.
	Close() error
}

// OverflowPolicy is what Write does when the buffer is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest item to make room.
	DropOldest OverflowPolicy = iota

	// DropNewest discards the item being written.
	DropNewest

	// Reject fails the write with errors.ErrOutOfMemory.
	Reject
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}

// DropCallback receives items discarded by the overflow policy or Clear.
type DropCallback[T any] func(item T)

// WatermarkFunc is called when the buffer crosses its high watermark
// (above true) and when it drains back to the low watermark (above false).
type WatermarkFunc func(above bool)

// NewCircularBuffer creates a ring holding at most capacity items.
// Capacities below one are raised to one.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}

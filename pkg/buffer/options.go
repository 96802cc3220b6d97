package buffer

import (
	"github.com/c360/hlxmatrix/metric"
)

// Option configures a buffer.
type Option[T any] func(*bufferOptions[T])

type bufferOptions[T any] struct {
	overflowPolicy OverflowPolicy
	dropCallback   DropCallback[T]

	high, low int
	watermark WatermarkFunc

	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithOverflowPolicy sets the full-buffer behavior. The default is
// DropOldest.
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.overflowPolicy = policy
	}
}

// WithMetrics exports the buffer counters under the component label
// prefix. A nil registry or empty prefix is ignored.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithDropCallback sets the callback for discarded items.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.dropCallback = callback
	}
}

// WithWatermark enables backpressure signalling. fn(true) fires when a
// write brings the size to high; fn(false) fires when reads bring it
// down to low. low is clamped to [0, high-1]. high <= 0 disables it.
func WithWatermark[T any](high, low int, fn WatermarkFunc) Option[T] {
	return func(opts *bufferOptions[T]) {
		if high <= 0 || fn == nil {
			return
		}
		if low >= high {
			low = high - 1
		}
		if low < 0 {
			low = 0
		}
		opts.high, opts.low, opts.watermark = high, low, fn
	}
}

func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		overflowPolicy: DropOldest,
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

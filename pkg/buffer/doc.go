// Package buffer provides a bounded, generic FIFO ring with overflow
// policies, always-on statistics and optional Prometheus metrics.
//
// Server sessions use it as their egress queue. A high/low watermark pair
// drives backpressure: crossing the high mark calls the watermark function
// with true, which pauses reads from the peer, and draining to the low mark
// calls it with false.
//
//	egress, err := buffer.NewCircularBuffer[[]byte](1024,
//		buffer.WithOverflowPolicy[[]byte](buffer.Reject),
//		buffer.WithWatermark[[]byte](256, 64, func(above bool) {
//			if above {
//				conn.Pause()
//			} else {
//				conn.Resume()
//			}
//		}),
//	)
//
// Policies:
//
//   - DropOldest evicts the oldest item (default)
//   - DropNewest discards the incoming item
//   - Reject fails the write with errors.ErrOutOfMemory
//
// Watermark and drop callbacks run outside the buffer lock and may call
// back into the buffer.
package buffer

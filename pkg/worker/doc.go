// Package worker runs work items on a fixed set of goroutines.
//
// Every worker owns a bounded queue. WithKey pins items to a worker so
// that items sharing a key are processed in submission order, which is
// what the event sinks need: events of one entity must reach NATS or a
// WebSocket peer in the order the controller produced them.
//
//	pool := worker.NewPool(4, 256, publish,
//		worker.WithKey(func(e event.Event) uint64 { return uint64(e.Kind()) }))
//	if err := pool.Start(ctx); err != nil {
//		return err
//	}
//	defer pool.Stop(5 * time.Second)
//
// Submit never blocks; a full queue returns ErrQueueFull.
package worker

// Package retry provides exponential backoff for transient failures.
//
// The transport package uses it to dial a server (Persistent) and to bind a
// listening socket (Quick). The NATS client uses it for the first connect.
//
// Backoff waits run on a clock.Clock, so tests can drive the schedule with a
// fake clock:
//
//	cfg := retry.Quick()
//	cfg.Clock = fake
//	conn, err := retry.DoWithResult(ctx, cfg, func() (net.Conn, error) {
//	    return dialer.DialContext(ctx, "tcp", addr)
//	})
//
// Errors wrapped with NonRetryable stop the loop immediately.
package retry

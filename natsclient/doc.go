// Package natsclient manages the NATS connection used by the event
// publisher and the configuration backup store.
//
// Client wraps nats.Conn with retried connects, status tracking and
// connection metrics. KVStore wraps a JetStream key-value bucket with
// per-operation timeouts and JSON helpers.
//
//	c, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithLogger(logger),
//		natsclient.WithMetrics(registry.CoreMetrics()))
//	if err != nil {
//		return err
//	}
//	if err := c.Connect(ctx); err != nil {
//		return err
//	}
//	defer c.Close(context.Background())
//
//	bucket, err := c.KeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "hlx_backup"})
package natsclient

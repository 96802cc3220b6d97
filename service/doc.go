// Package service runs the side services around a protocol endpoint.
//
// A Manager starts services in registration order and stops them in
// reverse. A failed start stops whatever already started. Every service
// reports into a health.Monitor, which backs the /health endpoint.
//
// Stack assembles the services both CLIs share from configuration: the
// Prometheus endpoint, the NATS connection, the NATS event sink, the
// WebSocket event stream and the event journal. Stack.Handle fans an event out to every
// configured sink.
//
//	stack, err := service.NewStack(service.StackConfig{
//	    Name:      "hlxserver",
//	    NATS:      cfg.NATS,
//	    Metrics:   cfg.Metrics,
//	    WebSocket: cfg.WebSocket,
//	}, logger)
//	if err := stack.StartAll(ctx); err != nil {
//	    return err
//	}
//	defer stack.StopAll(5 * time.Second)
//	app.Subscribe(stack.Handle)
package service

// Package health tracks the health of the parts of an HLX endpoint.
//
// Each part (the client connection, the server listener, the NATS link, the
// event sinks) reports a Status into a Monitor. The metrics server serves
// the report on /health. The report takes the worst state of any part.
//
//	monitor := health.NewMonitor(nil)
//	monitor.UpdateHealthy("listener", "accepting")
//	monitor.Update("nats", health.FromError("nats", err))
//	status := monitor.Report("hlxserver")
package health

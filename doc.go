// Package hlxmatrix implements both ends of the HLX audio matrix control
// protocol: a client that mirrors a matrix's state and drives it, and a
// server that simulates the matrix for any number of clients.
//
// # Architecture
//
// Both roles share one layering:
//
//	transport   TCP connections, reconnect, read backpressure
//	framing     role-delimited frames ("[...]" or "(...)")
//	grammar     compiled request/response patterns
//	exchange    request queue, one pending request, timeouts
//	dispatch    pattern to handler tables
//	client      per-domain controllers, group derivation
//	server      per-domain controllers, sessions, backup
//	model       zones, groups, sources, presets, favorites, device
//	event       typed change events and their bus
//
// All protocol state is owned by one pkg/loop.Loop per endpoint. Network
// readers and timers post work onto it, so the controllers never lock.
//
// # Side services
//
// The service package assembles what runs next to an endpoint from
// configuration: a Prometheus /metrics and /health server, a NATS
// connection with an event publisher, a WebSocket event stream, a JSON
// lines journal, and (on the server) a NATS KV configuration backup.
// The discovery package advertises servers over mDNS and finds them from
// the client.
//
// # Binaries
//
//	cmd/hlxserver   the simulator
//	cmd/hlxclient   one-shot commands and a streaming watch
package hlxmatrix

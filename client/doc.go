// Package client implements the client role of the HLX protocol: per-domain
// controllers that mirror a remote matrix into a local model, the group
// state deriver, and the Application that composes them.
//
// Controllers turn operations into requests on the exchange manager and
// turn responses and unsolicited notifications into model mutations. A
// mutation that returns model.Applied publishes an event; AlreadySet
// publishes nothing. Controllers publish on an internal bus that only the
// Application subscribes to. The Application forwards every event except
// the internal group commands to external subscribers and hands each event
// to the Deriver, which keeps group mute, source and volume consistent with
// the member zones.
//
// Everything in this package runs on one event loop. Public methods must
// be called from that loop, typically through loop.Loop.Call.
package client

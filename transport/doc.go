// Package transport carries HLX byte streams over TCP.
//
// Dial resolves and connects with backoff, Listen binds and accepts, and
// both hand out a Conn. A Conn writes whole frames, reads on its caller's
// goroutine, and can pause reading to apply backpressure on a peer whose
// replies are not being drained.
//
// Every connection reports its life cycle to an Observer:
//
//	WillResolve -> IsResolving -> DidResolve | DidNotResolve
//	WillConnect -> IsConnecting -> DidConnect | DidNotConnect
//	WillDisconnect -> DidDisconnect | DidNotDisconnect
//
// Accepted connections start at DidConnect.
package transport

// Package exchange pairs requests with their responses on one connection.
//
// A Manager keeps at most one request pending. Further submissions wait in
// a FIFO queue and are sent, in submission order, as the pending exchange
// reaches a terminal state:
//
//	Queued ──send──▶ Pending ──match──▶ Completed
//	                    ├─timeout──▶ TimedOut
//	                    ├─error───▶ Failed
//	                    └─cancel──▶ Cancelled
//
// Incoming response payloads are offered to HandleResponse first. A payload
// matching the pending request's expected pattern completes it; anything
// else is left for the notification dispatcher. An (ERR) response fails the
// pending exchange with errors.ErrRequestRejected.
//
// The Manager is not safe for concurrent use. It is owned by the endpoint's
// event loop and every method, Handle.Cancel included, must be called from
// that loop. Handle.State, Handle.Err and Handle.Done may be read from any
// goroutine.
package exchange

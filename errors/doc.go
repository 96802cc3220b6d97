// Package errors provides standardized error handling for the HLX protocol engine.
//
// # Overview
//
// Two layers live here. The protocol error kinds (ErrRange, ErrInvalidArgument,
// ErrFramingOverflow, ErrParseMismatch, ErrExchangeTimeout, ErrTransportLost, ...)
// are the sentinels every controller returns and every ControllerError event
// reports through KindOf. On top of them sits the three-class classification
// used by the transport and sinks, see Class.
//
// A value that is already set is not an error; see model.Status.
//
// # Wrapping
//
// All wrapping follows the "component.method: action failed: cause" format:
//
//	if err := conn.Send(frame); err != nil {
//	    return errors.WrapTransient(err, "Manager", "send", "write request")
//	}
//
// Wrapped errors keep their sentinel, so errors.Is(err, errors.ErrTransportLost)
// and errors.KindOf(err) work through any number of wraps.
package errors

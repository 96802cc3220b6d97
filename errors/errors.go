package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Class says how a caller should react to an error.
type Class int

const (
	// Transient errors may succeed on retry.
	Transient Class = iota
	// Invalid errors come from bad input; retrying does not help.
	Invalid
	// Fatal errors stop the component.
	Fatal
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Protocol error kinds. Controllers return them and ControllerError events
// report them by name through KindOf.
var (
	ErrRange           = errors.New("value out of range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfMemory     = errors.New("out of memory")
	ErrNotInitialized  = errors.New("not initialized")
	ErrFramingOverflow = errors.New("framing overflow")
	ErrParseMismatch   = errors.New("parse mismatch")
	ErrExchangeTimeout = errors.New("exchange timeout")
	ErrTransportLost   = errors.New("transport lost")
	ErrRequestRejected = errors.New("request rejected")
	ErrCancelled       = errors.New("exchange cancelled")
	ErrNotFound        = errors.New("not found")
)

// Lifecycle, connection and configuration errors shared by the side
// services.
var (
	ErrAlreadyStarted    = errors.New("already started")
	ErrShuttingDown      = errors.New("shutting down")
	ErrNoConnection      = errors.New("no connection")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingConfig     = errors.New("missing required configuration")
	ErrBackupNotFound    = errors.New("backup not found")
)

// sentinels gives each known error its class and, for protocol kinds, the
// name reported in events. Matching runs in order.
var sentinels = []struct {
	err   error
	kind  string
	class Class
}{
	{ErrRange, "Range", Invalid},
	{ErrInvalidArgument, "InvalidArgument", Invalid},
	{ErrOutOfMemory, "OutOfMemory", Fatal},
	{ErrNotInitialized, "NotInitialized", Fatal},
	{ErrFramingOverflow, "FramingOverflow", Fatal},
	{ErrParseMismatch, "ParseMismatch", Invalid},
	{ErrExchangeTimeout, "ExchangeTimeout", Transient},
	{ErrTransportLost, "TransportLost", Transient},
	{ErrRequestRejected, "RequestRejected", Invalid},
	{ErrCancelled, "Cancelled", Transient},
	{ErrNotFound, "NotFound", Invalid},
	{ErrConnectionTimeout, "", Transient},
	{ErrConnectionLost, "", Transient},
	{ErrNoConnection, "", Transient},
	{ErrInvalidConfig, "", Fatal},
	{ErrMissingConfig, "", Fatal},
	{context.DeadlineExceeded, "", Transient},
	{context.Canceled, "", Transient},
}

// transientHints are substrings of OS and library errors that usually clear
// on their own.
var transientHints = []string{"timeout", "connection", "network", "temporary", "unavailable", "refused"}

// KindOf returns the protocol error kind name for err, or "Unknown".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range sentinels {
		if s.kind != "" && errors.Is(err, s.err) {
			return s.kind
		}
	}
	return "Unknown"
}

// ClassifiedError carries an explicit class and the place it was raised.
type ClassifiedError struct {
	Class     Class
	Err       error
	Component string
	Operation string
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// Is, As, New and Join re-export the standard library helpers so callers
// need only one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Classify returns the class of err. An explicit ClassifiedError wins, then
// the sentinel table, then message hints. Anything else is Transient.
func Classify(err error) Class {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.class
		}
	}
	return Transient
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Transient
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.class == Transient
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsFatal reports whether err should stop the component.
func IsFatal(err error) bool { return err != nil && Classify(err) == Fatal }

// IsInvalid reports whether err was caused by bad input.
func IsInvalid(err error) bool { return err != nil && Classify(err) == Invalid }

// Wrap annotates err as "component.method: action failed: err".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class Class, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err and marks it Transient.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(Transient, err, component, method, action)
}

// WrapFatal wraps err and marks it Fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(Fatal, err, component, method, action)
}

// WrapInvalid wraps err and marks it Invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(Invalid, err, component, method, action)
}

// Rangef returns ErrRange annotated with the offending value and bounds.
func Rangef(what string, value, lo, hi int) error {
	return fmt.Errorf("%s %d not in [%d, %d]: %w", what, value, lo, hi, ErrRange)
}

// Package mcerr carries the typed error hierarchy surfaced to callers of
// the mcp package, grounded in Daedaluz-goserial's Error{msg, err} wrapper
// pattern: every kind implements error, and the kinds that wrap an
// underlying cause (CommTypeError, PlcTypeError, TransportError,
// TimeoutError) implement Unwrap() so callers can use errors.As/errors.Is
// against that cause.
package mcerr

import (
	"errors"
	"fmt"
)

// ArgError reports a caller-supplied value out of range: size, clear_mode,
// a bit value not 0/1, mismatched list lengths, password length, a
// non-ASCII password, non-alphanumeric echo data.
type ArgError struct {
	Msg string
}

func (e *ArgError) Error() string { return "mc3e: bad argument: " + e.Msg }

// NewArgError builds an ArgError with a formatted message.
func NewArgError(format string, args ...any) *ArgError {
	return &ArgError{Msg: fmt.Sprintf(format, args...)}
}

// DeviceError reports an unparseable mnemonic, or a mnemonic unknown for
// the active PLC family.
type DeviceError struct {
	Msg string
}

func (e *DeviceError) Error() string { return "mc3e: bad device: " + e.Msg }

func NewDeviceError(format string, args ...any) *DeviceError {
	return &DeviceError{Msg: fmt.Sprintf(format, args...)}
}

// CommTypeError reports a communication-type argument outside {"binary",
// "ascii"}.
type CommTypeError struct{ Cause error }

func (e *CommTypeError) Error() string { return e.Cause.Error() }
func (e *CommTypeError) Unwrap() error { return e.Cause }

// PlcTypeError reports a PLC-family argument outside the accepted set.
type PlcTypeError struct{ Cause error }

func (e *PlcTypeError) Error() string { return e.Cause.Error() }
func (e *PlcTypeError) Unwrap() error { return e.Cause }

// RangeError reports a value that cannot be packed into the declared wire
// width.
type RangeError struct {
	Format string
	Value  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("mc3e: value %d out of range for format %s", e.Value, e.Format)
}

// TransportError wraps an underlying socket error from resolve, connect,
// send, recv or close.
type TransportError struct{ Cause error }

func (e *TransportError) Error() string { return "mc3e: transport: " + e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransportError wraps cause, returning nil if cause is nil.
func NewTransportError(cause error) error {
	if cause == nil {
		return nil
	}
	return &TransportError{Cause: cause}
}

// TimeoutError reports a receive deadline elapsed before a response was
// observed.
type TimeoutError struct{ Cause error }

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return "mc3e: timeout: " + e.Cause.Error()
	}
	return "mc3e: timeout waiting for PLC response"
}
func (e *TimeoutError) Unwrap() error { return e.Cause }

// ProtocolError reports a response whose status field was non-zero.
type ProtocolError struct {
	Code    uint16
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mc3e: PLC returned status 0x%04X: %s", e.Code, e.Message)
}

// DisconnectedError reports an operation attempted while the session is
// not connected.
type DisconnectedError struct{}

func (e *DisconnectedError) Error() string { return "mc3e: not connected" }

// IsProtocolError reports whether err (or something it wraps) is a
// *ProtocolError, following the Yobol-go-iec104 IsErr*-predicate pattern.
func IsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	ok := errors.As(err, &pe)
	return pe, ok
}

package ras

import (
	"errors"
	"fmt"

	"rasbridge/internal/native"
)

// Error classes. Use errors.Is against these; the concrete error types carry
// the details.
var (
	ErrInvalidArgument   = errors.New("ras: invalid argument")
	ErrInvalidHandle     = errors.New("ras: invalid connection handle")
	ErrNotSupported      = errors.New("ras: not supported on this platform")
	ErrAccessDenied      = errors.New("ras: access denied")
	ErrEntryNotFound     = errors.New("ras: phone-book entry not found")
	ErrPhoneBookNotFound = errors.New("ras: phone book not found")
	ErrAlreadyExists     = errors.New("ras: entry already exists")
	ErrInvalidName       = errors.New("ras: invalid entry name")
	ErrNotNAPCapable     = errors.New("ras: connection is not NAP capable")
	ErrNoConnection      = errors.New("ras: no connection")
)

var codeClasses = map[native.ResultCode]error{
	native.ErrorProcNotFound:             ErrNotSupported,
	native.ErrorCallNotImplemented:       ErrNotSupported,
	native.ErrorAccessDenied:             ErrAccessDenied,
	native.ErrorCannotFindPhonebookEntry: ErrEntryNotFound,
	native.ErrorFileNotFound:             ErrPhoneBookNotFound,
	native.ErrorCannotOpenPhonebook:      ErrPhoneBookNotFound,
	native.ErrorAlreadyExists:            ErrAlreadyExists,
	native.ErrorInvalidName:              ErrInvalidName,
	native.ErrorNotNAPCapable:            ErrNotNAPCapable,
	native.ErrorNoConnection:             ErrNoConnection,
}

// ArgumentError reports caller input rejected before any native call.
type ArgumentError struct {
	Op     string
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ras: %s: invalid %s: %s", e.Op, e.Arg, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NativeError is a non-success result code from rasapi32.
type NativeError struct {
	Op   string
	Code native.ResultCode
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("ras: %s: %s", e.Op, e.Code)
}

// Is matches the error class of the result code.
func (e *NativeError) Is(target error) bool {
	class, ok := codeClasses[e.Code]
	return ok && class == target
}

// InvalidHandleError reports an operation on a handle the native layer does
// not know, or one this package already marked invalid after a hang-up.
type InvalidHandleError struct {
	Op     string
	Handle native.Handle
	Closed bool
}

func (e *InvalidHandleError) Error() string {
	if e.Closed {
		return fmt.Sprintf("ras: %s: handle %#x was hung up", e.Op, uintptr(e.Handle))
	}
	return fmt.Sprintf("ras: %s: handle %#x is not valid", e.Op, uintptr(e.Handle))
}

func (e *InvalidHandleError) Is(target error) bool { return target == ErrInvalidHandle }

func argError(op, arg, reason string) error {
	return &ArgumentError{Op: op, Arg: arg, Reason: reason}
}

// translate converts a result code into an error. Success is nil.
func translate(op string, code native.ResultCode) error {
	if code == native.Success {
		return nil
	}
	return &NativeError{Op: op, Code: code}
}

// translateHandle is translate for calls that take a connection handle.
func translateHandle(op string, h native.Handle, code native.ResultCode) error {
	switch code {
	case native.Success:
		return nil
	case native.ErrorInvalidHandle, native.ErrorInvalidPortHandle:
		return &InvalidHandleError{Op: op, Handle: h}
	}
	return translate(op, code)
}

// Code extracts the native result code from err, if any.
func Code(err error) (native.ResultCode, bool) {
	var ne *NativeError
	if errors.As(err, &ne) {
		return ne.Code, true
	}
	return 0, false
}

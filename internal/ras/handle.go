package ras

import (
	"fmt"

	"go.uber.org/atomic"

	"rasbridge/internal/native"
)

// HandleState is the lifecycle state of a connection handle.
type HandleState int32

const (
	HandleUnestablished HandleState = iota
	HandleOpen
	HandleTerminating
	HandleInvalid
)

func (s HandleState) String() string {
	switch s {
	case HandleUnestablished:
		return "unestablished"
	case HandleOpen:
		return "open"
	case HandleTerminating:
		return "terminating"
	case HandleInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("HandleState(%d)", int32(s))
	}
}

// Handle is a connection handle plus the state this package tracks for it.
// Once Invalid, every Client operation on it fails without a native call.
// Pass it by pointer; copies would not see the state change.
type Handle struct {
	raw      native.Handle
	subEntry bool
	state    atomic.Int32
}

func newHandle(raw native.Handle, subEntry bool) *Handle {
	h := &Handle{raw: raw, subEntry: subEntry}
	h.state.Store(int32(HandleOpen))
	return h
}

// HandleFromRaw wraps a raw HRASCONN obtained outside this package, such as
// one parsed from a command line. It starts Open.
func HandleFromRaw(raw native.Handle) *Handle {
	return newHandle(raw, false)
}

// Raw returns the native handle value.
func (h *Handle) Raw() native.Handle { return h.raw }

// IsSubEntry reports whether the handle denotes one link of a multilink connection.
func (h *Handle) IsSubEntry() bool { return h.subEntry }

// State returns the current lifecycle state.
func (h *Handle) State() HandleState { return HandleState(h.state.Load()) }

// IsValid reports whether operations may still be issued on h.
func (h *Handle) IsValid() bool {
	s := h.State()
	return s == HandleOpen || s == HandleTerminating
}

func (h *Handle) String() string {
	return fmt.Sprintf("%#x", uintptr(h.raw))
}

func (h *Handle) markInvalid() { h.state.Store(int32(HandleInvalid)) }

// use checks h before an operation is issued on it.
func (c *Client) use(op string, h *Handle) error {
	if h == nil {
		return argError(op, "handle", "nil")
	}
	switch h.State() {
	case HandleOpen, HandleTerminating:
		return nil
	case HandleInvalid:
		return &InvalidHandleError{Op: op, Handle: h.raw, Closed: true}
	default:
		return &InvalidHandleError{Op: op, Handle: h.raw}
	}
}

// handleFail translates a code from a call on h. An unknown-handle report
// marks h invalid so later calls fail fast.
func (c *Client) handleFail(op string, h *Handle) func(native.ResultCode) error {
	return func(code native.ResultCode) error {
		err := translateHandle(op, h.raw, code)
		if _, ok := err.(*InvalidHandleError); ok {
			h.markInvalid()
		}
		return err
	}
}

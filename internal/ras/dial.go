package ras

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"rasbridge/internal/native"
)

// ErrDialAborted is returned when the progress callback stops a dial.
var ErrDialAborted = errors.New("ras: dial aborted by progress callback")

// abandonPollInterval is the status poll interval when a failed dial is torn down.
const abandonPollInterval = 50 * time.Millisecond

// DialEvent is one dial progress notification.
type DialEvent struct {
	SubEntry uint32
	Handle   native.Handle
	State    ConnState
	Err      error
	Extended uint32
}

// DialProgress observes a dial. It may run on any OS thread and must return
// quickly; returning false aborts the dial.
type DialProgress func(DialEvent) bool

// Dial establishes a connection. An empty phoneBook selects the system
// phone book. ext may be nil. With a nil progress the call dials
// synchronously; otherwise notifications go to progress and Dial returns
// once the connection reaches a terminal state.
//
// If anything fails after the native layer handed out a handle, including a
// panic in progress, the connection is hung up before Dial returns.
func (c *Client) Dial(phoneBook string, params DialParams, ext *DialExtensions, progress DialProgress) (*Handle, error) {
	const op = "Dial"
	if params.EntryName == "" && params.PhoneNumber == "" {
		return nil, argError(op, "params", "entry name or phone number required")
	}

	var conn *Handle
	err := c.withBuffer(op, c.layoutOf(defRASDIALPARAMS).Size, func(paramsBuf *native.Buffer) error {
		id := c.callbackIDs.Inc()
		rec, err := c.record(defRASDIALPARAMS, paramsBuf)
		if err != nil {
			return err
		}
		if err := encodeDialParams(rec, params, uint64(id)); err != nil {
			return argError(op, "params", err.Error())
		}
		if ext == nil {
			conn, err = c.dial(phoneBook, nil, paramsBuf, id, progress)
			return err
		}
		return c.withBuffer(op, c.dialExtensionsSize(*ext), func(extBuf *native.Buffer) error {
			if err := c.encodeDialExtensions(extBuf, *ext); err != nil {
				return argError(op, "extensions", err.Error())
			}
			conn, err = c.dial(phoneBook, extBuf, paramsBuf, id, progress)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) dial(phoneBook string, extBuf, paramsBuf *native.Buffer, id uintptr, progress DialProgress) (conn *Handle, err error) {
	const op = "Dial"
	var (
		w      *dialWaiter
		notify native.DialNotifier
	)
	if progress != nil {
		w = newDialWaiter(progress)
		notify = w.notify
	}

	var raw native.Handle
	code := c.call("RasDial", func() native.ResultCode {
		return c.api.Dial(extBuf, phoneBook, paramsBuf, id, notify, &raw)
	}, phoneBook, id)
	if code != native.Success {
		err = translate(op, code)
		if raw != 0 {
			err = multierr.Append(err, c.abandon(newHandle(raw, false)))
		}
		return nil, err
	}

	h := newHandle(raw, false)
	defer func() {
		if r := recover(); r != nil {
			_ = c.abandon(h)
			panic(r)
		}
		if err != nil {
			err = multierr.Append(err, c.abandon(h))
			conn = nil
		}
	}()

	if w != nil {
		if err := w.wait(); err != nil {
			var p *dialPanic
			if errors.As(err, &p) {
				panic(p.value)
			}
			return nil, err
		}
	}
	return h, nil
}

// abandon hangs up a connection that will not be returned to the caller.
func (c *Client) abandon(h *Handle) error {
	if err := c.HangUp(h, abandonPollInterval, true); err != nil {
		return fmt.Errorf("ras: hang up abandoned connection %s: %w", h, err)
	}
	return nil
}

// dialPanic carries a panic from the notifier thread back to Dial.
type dialPanic struct {
	value any
}

func (p *dialPanic) Error() string {
	return fmt.Sprintf("ras: dial progress callback panicked: %v", p.value)
}

// dialWaiter adapts a DialProgress to native notifications and reports the
// outcome once.
type dialWaiter struct {
	progress DialProgress
	once     sync.Once
	done     chan error
}

func newDialWaiter(progress DialProgress) *dialWaiter {
	return &dialWaiter{progress: progress, done: make(chan error, 1)}
}

func (w *dialWaiter) finish(err error) {
	w.once.Do(func() { w.done <- err })
}

func (w *dialWaiter) wait() error { return <-w.done }

func (w *dialWaiter) notify(subEntry uint32, h native.Handle, state uint32, code native.ResultCode, extended uint32) (more bool) {
	defer func() {
		if r := recover(); r != nil {
			w.finish(&dialPanic{value: r})
			more = false
		}
	}()

	ev := DialEvent{SubEntry: subEntry, Handle: h, State: ConnState(state), Extended: extended}
	if code != native.Success {
		ev.Err = translate("Dial", code)
	}
	more = w.progress(ev)

	switch {
	case ev.Err != nil:
		w.finish(ev.Err)
		return false
	case !more:
		w.finish(ErrDialAborted)
		return false
	case ev.State == StateConnected:
		w.finish(nil)
		return false
	case ev.State == StateDisconnected:
		w.finish(fmt.Errorf("ras: Dial: disconnected: %w", ErrNoConnection))
		return false
	}
	return true
}

package ras

import (
	"errors"
	"time"

	"rasbridge/internal/native"
)

// HangUp terminates the connection and waits until the native layer has
// released it. With closeAll, RasHangUp is repeated until it reports that
// no connection remains, dropping every reference other processes hold.
// The status is then polled every pollInterval (zero polls without
// sleeping), followed by PortReleaseDelay. On success h is Invalid.
func (c *Client) HangUp(h *Handle, pollInterval time.Duration, closeAll bool) error {
	const op = "HangUp"
	if h == nil {
		return argError(op, "handle", "nil")
	}
	if pollInterval < 0 {
		return argError(op, "pollInterval", "negative")
	}
	if err := c.use(op, h); err != nil {
		return err
	}
	if !h.state.CompareAndSwap(int32(HandleOpen), int32(HandleTerminating)) {
		return &InvalidHandleError{Op: op, Handle: h.raw, Closed: true}
	}

	if err := c.hangUpCalls(op, h, closeAll); err != nil {
		return err
	}
	err := c.waitDisconnected(h, pollInterval)
	c.sleep(PortReleaseDelay)
	h.markInvalid()
	return err
}

// hangUpCalls issues RasHangUp once, or until "no connection" with closeAll.
// A failing first call leaves h as it was before the hang-up.
func (c *Client) hangUpCalls(op string, h *Handle, closeAll bool) error {
	for first := true; ; first = false {
		code := c.call("RasHangUp", func() native.ResultCode { return c.api.HangUp(h.raw) }, h.raw)
		switch {
		case code == native.Success:
			if closeAll {
				continue
			}
			return nil
		case code == native.ErrorNoConnection || !first:
			return nil
		}
		err := translateHandle(op, h.raw, code)
		var invalid *InvalidHandleError
		if errors.As(err, &invalid) {
			h.markInvalid()
		} else {
			h.state.Store(int32(HandleOpen))
		}
		return err
	}
}

// waitDisconnected polls the connection status until the native layer no
// longer reports the connection as active.
func (c *Client) waitDisconnected(h *Handle, interval time.Duration) error {
	return c.withBuffer("HangUp", c.layoutOf(defRASCONNSTATUS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASCONNSTATUS, buf)
		if err != nil {
			return err
		}
		for {
			buf.Zero()
			rec.SetSize()
			code := c.call("RasGetConnectStatus", func() native.ResultCode {
				return c.api.GetConnectStatus(h.raw, buf)
			}, h.raw)
			if code != native.Success {
				// ERROR_INVALID_HANDLE and ERROR_NO_CONNECTION are the normal
				// end; anything else also means there is nothing left to poll.
				return nil
			}
			if ConnState(rec.U32("rasconnstate")) == StateDisconnected {
				return nil
			}
			if interval > 0 {
				c.sleep(interval)
			}
		}
	})
}

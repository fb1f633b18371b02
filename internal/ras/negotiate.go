package ras

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"rasbridge/internal/native"
)

// negotiation describes one grow-and-retry native call.
type negotiation struct {
	op      string
	initial uint32

	// prepare initializes a fresh buffer before each attempt, typically by
	// writing dwSize into the first record.
	prepare func(buf *native.Buffer) error
	// invoke calls the native function. On "buffer too small" it must
	// leave the required size in *size.
	invoke func(buf *native.Buffer, size, count *uint32) native.ResultCode
	// consume decodes a successful result. The buffer is freed after it
	// returns.
	consume func(buf *native.Buffer, size, count uint32) error

	// empty lists result codes that mean "nothing here" rather than failure.
	empty []native.ResultCode
	// fail translates other non-success codes; translate is used when nil.
	fail func(code native.ResultCode) error
}

// notFound are the lookup-style "nothing here" codes.
var notFound = []native.ResultCode{native.ErrorFileNotFound, native.ErrorCannotFindPhonebookEntry}

// negotiate runs n until it succeeds, reports an empty result or fails.
// On "buffer too small" the next attempt gets exactly the size the native
// call wrote back, whether larger or smaller than the last offer.
// Every buffer it allocates is freed before it returns, including on panic.
func (c *Client) negotiate(n negotiation) error {
	size := n.initial
	for {
		retry, err := c.attempt(&n, &size)
		if err != nil || !retry {
			return err
		}
	}
}

func (c *Client) attempt(n *negotiation, size *uint32) (retry bool, err error) {
	buf, err := c.alloc.Alloc(int(*size))
	if err != nil {
		return false, fmt.Errorf("ras: %s: allocate %d bytes: %w", n.op, *size, err)
	}
	defer func() {
		multierr.AppendInto(&err, buf.Free())
	}()

	if n.prepare != nil {
		if err := n.prepare(buf); err != nil {
			return false, err
		}
	}

	var count uint32
	code := n.invoke(buf, size, &count)
	switch {
	case code == native.Success:
		if n.consume == nil {
			return false, nil
		}
		return false, n.consume(buf, *size, count)
	case code.IsBufferTooSmall():
		return true, nil
	case slices.Contains(n.empty, code):
		return false, nil
	case n.fail != nil:
		return false, n.fail(code)
	default:
		return false, translate(n.op, code)
	}
}

// withBuffer allocates size bytes for the duration of fn.
func (c *Client) withBuffer(op string, size int, fn func(buf *native.Buffer) error) (err error) {
	buf, err := c.alloc.Alloc(size)
	if err != nil {
		return fmt.Errorf("ras: %s: allocate %d bytes: %w", op, size, err)
	}
	defer func() {
		multierr.AppendInto(&err, buf.Free())
	}()
	return fn(buf)
}

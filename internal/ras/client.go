// Package ras bridges the rasapi32 connection-management API to Go values.
//
// A Client owns the marshaling rules for one OS release: it resolves record
// layouts for that release, negotiates buffer sizes with the native layer,
// and tracks connection handles through hang-up. The call surface itself is
// injected as a native.API so the whole package runs against a fake in tests.
package ras

import (
	"time"

	"go.uber.org/atomic"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// PortReleaseDelay is the pause after a hang-up completes. Releasing the
// port sooner can leave it unusable until reboot.
const PortReleaseDelay = time.Second

// fallbackVersion is used when the running release cannot be detected.
var fallbackVersion = layout.Version{Major: 6, Minor: 1, Build: 7601}

// Client issues rasapi32 calls and translates their records and results.
type Client struct {
	api         native.API
	alloc       native.Allocator
	tracer      Tracer
	version     layout.Version
	arch        layout.Arch
	corrections layout.CorrectionTable
	sleep       func(time.Duration)

	callbackIDs atomic.Uintptr
}

// Option configures a Client.
type Option func(*Client)

// WithAllocator sets the allocator for native buffers.
func WithAllocator(a native.Allocator) Option {
	return func(c *Client) { c.alloc = a }
}

// WithTracer emits one event per native call.
func WithTracer(t Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithVersion overrides the detected OS release.
func WithVersion(v layout.Version) Option {
	return func(c *Client) { c.version = v }
}

// WithArch overrides the pointer size used for layouts.
func WithArch(a layout.Arch) Option {
	return func(c *Client) { c.arch = a }
}

// WithCorrections replaces the entry-properties size-correction table.
func WithCorrections(t layout.CorrectionTable) Option {
	return func(c *Client) { c.corrections = t }
}

// WithSleep replaces time.Sleep for hang-up polling and the port release pause.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient returns a Client calling api.
func NewClient(api native.API, opts ...Option) *Client {
	c := &Client{
		api:         api,
		alloc:       native.DefaultAllocator(),
		arch:        layout.HostArch,
		corrections: layout.DefaultEntryCorrections,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.version.IsZero() {
		major, minor, build := native.OSVersion()
		c.version = layout.Version{Major: major, Minor: minor, Build: build}
	}
	if c.version.IsZero() {
		c.version = fallbackVersion
	}
	return c
}

// OSVersion returns the release the client marshals for.
func (c *Client) OSVersion() layout.Version { return c.version }

// RequiredSize is RequiredSize for this client's release, architecture and
// correction table.
func (c *Client) RequiredSize(rt RecordType) int {
	return requiredSize(rt, c.version, c.arch, c.corrections)
}

func (c *Client) layoutOf(def *layout.Def) *layout.Layout {
	return def.Resolve(c.version, c.arch)
}

// entrySize is the corrected RASENTRY size for this release.
func (c *Client) entrySize() int {
	return c.corrections.Apply(c.version, c.layoutOf(defRASENTRY).Size)
}

// call invokes fn and reports it to the tracer.
func (c *Client) call(name string, fn func() native.ResultCode, args ...any) native.ResultCode {
	code := fn()
	if c.tracer != nil {
		c.tracer.Trace(name, args, code)
	}
	return code
}

// record views the start of buf as a record of def.
func (c *Client) record(def *layout.Def, buf *native.Buffer) (layout.Record, error) {
	return layout.NewRecord(c.layoutOf(def), buf.Bytes())
}

// sizedPrepare writes dwSize into the first record of a fresh buffer. A
// buffer shorter than one record is passed through untouched.
func (c *Client) sizedPrepare(def *layout.Def) func(*native.Buffer) error {
	return func(buf *native.Buffer) error {
		if buf.Len() < c.layoutOf(def).Size {
			return nil
		}
		rec, err := c.record(def, buf)
		if err != nil {
			return err
		}
		rec.SetSize()
		return nil
	}
}

package native

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/atomic"
)

// ErrBufferFreed is returned when a buffer is used or released twice.
var ErrBufferFreed = errors.New("native: buffer already freed")

// Buffer is a block of memory handed to a native call. Every Buffer must be
// released exactly once with Free.
type Buffer struct {
	data    []byte
	release func() error
	freed   bool
}

// NewBuffer wraps memory obtained by an Allocator. release is invoked by Free.
func NewBuffer(data []byte, release func() error) *Buffer {
	return &Buffer{data: data, release: release}
}

// Bytes returns the buffer contents. The slice is invalid after Free.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer capacity in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Addr returns the address of the first byte, or 0 for an empty buffer.
// Native records that contain pointers into their own buffer are decoded
// relative to this address.
func (b *Buffer) Addr() uintptr {
	if len(b.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.data[0]))
}

// Zero clears the buffer contents.
func (b *Buffer) Zero() {
	clear(b.data)
}

// Free releases the buffer. A second call reports ErrBufferFreed and does
// not release the memory again.
func (b *Buffer) Free() error {
	if b == nil {
		return nil
	}
	if b.freed {
		return ErrBufferFreed
	}
	b.freed = true
	data := b.data
	b.data = nil
	if b.release == nil {
		return nil
	}
	if err := b.release(); err != nil {
		return fmt.Errorf("native: free %d bytes: %w", len(data), err)
	}
	return nil
}

// Allocator hands out zeroed buffers for native calls.
type Allocator interface {
	Alloc(size int) (*Buffer, error)
}

// HeapAllocator allocates from the Go heap. Used on platforms without
// rasapi32 and in tests.
type HeapAllocator struct{}

// Alloc returns a zeroed heap buffer of the given size.
func (HeapAllocator) Alloc(size int) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("native: negative allocation size %d", size)
	}
	return NewBuffer(make([]byte, size), nil), nil
}

// TrackingAllocator wraps another Allocator and counts live allocations.
// It is the leak harness for negotiation and dial paths.
type TrackingAllocator struct {
	Base Allocator

	allocs atomic.Int64
	frees  atomic.Int64
	bytes  atomic.Int64
}

// NewTrackingAllocator wraps base; a nil base means HeapAllocator.
func NewTrackingAllocator(base Allocator) *TrackingAllocator {
	if base == nil {
		base = HeapAllocator{}
	}
	return &TrackingAllocator{Base: base}
}

// Alloc allocates from the base allocator and records the allocation.
func (t *TrackingAllocator) Alloc(size int) (*Buffer, error) {
	b, err := t.Base.Alloc(size)
	if err != nil {
		return nil, err
	}
	t.allocs.Inc()
	t.bytes.Add(int64(size))
	inner := b.release
	b.release = func() error {
		t.frees.Inc()
		t.bytes.Sub(int64(size))
		if inner != nil {
			return inner()
		}
		return nil
	}
	return b, nil
}

// Allocs returns the number of allocations made.
func (t *TrackingAllocator) Allocs() int64 { return t.allocs.Load() }

// Frees returns the number of buffers released.
func (t *TrackingAllocator) Frees() int64 { return t.frees.Load() }

// Outstanding returns the number of buffers not yet released.
func (t *TrackingAllocator) Outstanding() int64 { return t.allocs.Load() - t.frees.Load() }

// OutstandingBytes returns the number of bytes not yet released.
func (t *TrackingAllocator) OutstandingBytes() int64 { return t.bytes.Load() }

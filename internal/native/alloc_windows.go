//go:build windows

package native

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// LocalAllocator allocates outside the Go heap with LocalAlloc(LPTR), the
// same memory class rasapi32 documentation uses for caller buffers.
type LocalAllocator struct{}

// Alloc returns a zeroed LocalAlloc block of the given size.
func (LocalAllocator) Alloc(size int) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("native: negative allocation size %d", size)
	}
	if size == 0 {
		return NewBuffer(nil, nil), nil
	}
	p, err := windows.LocalAlloc(windows.LPTR, uint32(size))
	if err != nil {
		return nil, fmt.Errorf("native: LocalAlloc(%d): %w", size, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(nil), p)), size)
	return NewBuffer(data, func() error {
		if _, err := windows.LocalFree(windows.Handle(p)); err != nil {
			return err
		}
		return nil
	}), nil
}

// DefaultAllocator returns the allocator used for native calls on this platform.
func DefaultAllocator() Allocator { return LocalAllocator{} }

// Default returns the rasapi32 call surface.
func Default() API { return NewWindows() }

// OSVersion reports the running OS major, minor and build numbers.
func OSVersion() (major, minor, build uint32) {
	v := windows.RtlGetVersion()
	return v.MajorVersion, v.MinorVersion, v.BuildNumber
}

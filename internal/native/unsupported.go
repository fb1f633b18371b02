//go:build !windows

package native

// DefaultAllocator returns the allocator used for native calls on this platform.
func DefaultAllocator() Allocator { return HeapAllocator{} }

// Default returns a call surface that reports every entry point as missing.
func Default() API { return Unsupported{} }

// OSVersion reports zeros: there is no Windows build to detect.
func OSVersion() (major, minor, build uint32) { return 0, 0, 0 }

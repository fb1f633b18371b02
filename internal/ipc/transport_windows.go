//go:build windows

package ipc

import (
	"context"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// PipeListener creates a named pipe listener for the gRPC server.
// The pipe allows any authenticated user to connect (SDDL grant).
func PipeListener(name string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		// rasctl runs as a regular user; rasmon usually as LocalSystem.
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		MessageMode:        false,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}
	return winio.ListenPipe(name, cfg)
}

// pipeDial connects to the named pipe.
func pipeDial(ctx context.Context, name string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, name)
}

//go:build !windows

package ipc

import (
	"context"
	"errors"
	"net"
	"time"
)

var errUnsupported = errors.New("ipc: named pipes are only available on Windows")

// PipeListener reports that named pipes are unavailable.
func PipeListener(string) (net.Listener, error) {
	return nil, errUnsupported
}

func pipeDial(context.Context, string, time.Duration) (net.Conn, error) {
	return nil, errUnsupported
}

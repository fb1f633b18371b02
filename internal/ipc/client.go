package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultDialTimeout = 5 * time.Second
)

// Client wraps a gRPC client connected to rasmon.
type Client struct {
	conn    *grpc.ClientConn
	Monitor *MonitorClient
}

// Dial connects to rasmon over the named pipe.
func Dial(ctx context.Context, pipe string) (*Client, error) {
	return DialWithTimeout(ctx, pipe, defaultDialTimeout)
}

// DialWithTimeout connects to rasmon with a custom timeout.
func DialWithTimeout(_ context.Context, pipe string, timeout time.Duration) (*Client, error) {
	return DialWith(pipe, func(ctx context.Context, _ string) (net.Conn, error) {
		return pipeDial(ctx, pipe, timeout)
	})
}

// DialWith connects to rasmon through dialer. name only labels the target.
func DialWith(name string, dialer func(context.Context, string) (net.Conn, error)) (*Client, error) {
	conn, err := grpc.NewClient(
		"passthrough:///"+name,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial: %w", err)
	}

	return &Client{
		conn:    conn,
		Monitor: NewMonitorClient(conn),
	}, nil
}

// Close shuts down the gRPC client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

package ipc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
)

// Server wraps a gRPC server serving the monitor service.
type Server struct {
	grpc    *grpc.Server
	tracker *ConnTracker
}

// NewServer creates a server for srv. A non-nil tracker observes every RPC.
func NewServer(srv MonitorServer, tracker *ConnTracker, opts ...grpc.ServerOption) *Server {
	if tracker != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(tracker.UnaryInterceptor()))
	}
	gs := grpc.NewServer(opts...)
	RegisterMonitorServer(gs, srv)
	return &Server{grpc: gs, tracker: tracker}
}

// Start opens the named pipe and serves on it.
// Blocks until Stop is called or an error occurs.
func (s *Server) Start(pipe string) error {
	ln, err := PipeListener(pipe)
	if err != nil {
		return fmt.Errorf("ipc: listen pipe: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. Blocks until Stop is called or an
// error occurs.
func (s *Server) Serve(ln net.Listener) error {
	if s.tracker != nil {
		s.tracker.Arm()
	}
	return s.grpc.Serve(ln)
}

// Stop gracefully stops the gRPC server and closes the listener.
func (s *Server) Stop() {
	if s.tracker != nil {
		s.tracker.CancelGrace()
	}
	s.grpc.GracefulStop()
}

// ForceStop immediately stops the gRPC server.
func (s *Server) ForceStop() {
	s.grpc.Stop()
}

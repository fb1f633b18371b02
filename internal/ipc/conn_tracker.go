package ipc

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"google.golang.org/grpc"

	"rasbridge/internal/core"
)

// ConnTracker counts in-flight RPCs. When the count drops to zero it starts
// a grace timer and calls onIdle if no RPC arrives before it expires.
type ConnTracker struct {
	active      atomic.Int64
	gracePeriod time.Duration
	onIdle      func() // called when grace period expires with no clients

	mu         sync.Mutex
	graceTimer *time.Timer
}

// NewConnTracker creates a ConnTracker with the given grace period.
// onIdle is called (in a separate goroutine) when all clients have
// disconnected and the grace period has elapsed without reconnection.
func NewConnTracker(gracePeriod time.Duration, onIdle func()) *ConnTracker {
	return &ConnTracker{
		gracePeriod: gracePeriod,
		onIdle:      onIdle,
	}
}

// ActiveCount returns the current number of active RPCs.
func (ct *ConnTracker) ActiveCount() int64 {
	return ct.active.Load()
}

// Arm starts the grace timer if no RPC is active, so a server that never
// receives a client still goes idle.
func (ct *ConnTracker) Arm() {
	if ct.active.Load() == 0 {
		ct.startGrace()
	}
}

// CancelGrace cancels any pending grace timer. Used during explicit shutdown
// to prevent the idle callback from firing.
func (ct *ConnTracker) CancelGrace() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.graceTimer != nil {
		ct.graceTimer.Stop()
		ct.graceTimer = nil
	}
}

func (ct *ConnTracker) startGrace() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.graceTimer != nil {
		ct.graceTimer.Stop()
	}
	core.Log.Debugf("IPC", "No active clients, starting %s grace timer", ct.gracePeriod)
	ct.graceTimer = time.AfterFunc(ct.gracePeriod, func() {
		ct.mu.Lock()
		ct.graceTimer = nil
		ct.mu.Unlock()
		if ct.onIdle != nil {
			ct.onIdle()
		}
	})
}

func (ct *ConnTracker) inc() {
	if ct.active.Add(1) == 1 {
		// Went from 0 → 1: cancel any pending grace timer.
		ct.mu.Lock()
		if ct.graceTimer != nil {
			ct.graceTimer.Stop()
			ct.graceTimer = nil
			core.Log.Debugf("IPC", "Client active, grace timer cancelled")
		}
		ct.mu.Unlock()
	}
}

func (ct *ConnTracker) dec() {
	if ct.active.Add(-1) == 0 {
		ct.startGrace()
	}
}

// UnaryInterceptor returns a gRPC unary server interceptor that tracks active RPCs.
func (ct *ConnTracker) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ct.inc()
		defer ct.dec()
		return handler(ctx, req)
	}
}

package ipc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rasbridge/internal/core"
	"rasbridge/internal/monitor"
	"rasbridge/internal/ras"
)

// Snapshotter supplies the monitor's latest view of active connections.
type Snapshotter interface {
	Latest() monitor.Snapshot
}

// Controller is the part of ras.Client the handler drives.
type Controller interface {
	Statistics(h *ras.Handle) (ras.Statistics, error)
	HangUp(h *ras.Handle, pollInterval time.Duration, closeAll bool) error
	Projections(h *ras.Handle) ([]ras.Projection, error)
	ProjectionEx(h *ras.Handle) (ras.Projection, error)
}

// HandlerConfig holds parameters for creating a Handler.
type HandlerConfig struct {
	Monitor    Snapshotter
	Controller Controller
	HangUp     core.HangUpConfig
}

// Handler implements MonitorServer on top of the monitor and a RAS client.
type Handler struct {
	mon    Snapshotter
	ctl    Controller
	hangUp core.HangUpConfig
}

var _ MonitorServer = (*Handler)(nil)

// NewHandler creates a Handler.
func NewHandler(c HandlerConfig) *Handler {
	return &Handler{mon: c.Monitor, ctl: c.Controller, hangUp: c.HangUp}
}

func (h *Handler) lookup(req *wrapperspb.StringValue) (monitor.ConnectionStats, error) {
	name := req.GetValue()
	if name == "" {
		return monitor.ConnectionStats{}, status.Error(codes.InvalidArgument, "entry name is required")
	}
	cs, ok := h.mon.Latest().Find(name)
	if !ok {
		return monitor.ConnectionStats{}, status.Errorf(codes.NotFound, "no active connection for %q", name)
	}
	return cs, nil
}

// toStatus maps ras error classes onto gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, ras.ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, ras.ErrInvalidHandle), errors.Is(err, ras.ErrNoConnection):
		code = codes.NotFound
	case errors.Is(err, ras.ErrAccessDenied):
		code = codes.PermissionDenied
	case errors.Is(err, ras.ErrNotSupported):
		code = codes.Unimplemented
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

// ─── RPCs ───────────────────────────────────────────────────────────

func (h *Handler) ListConnections(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap := h.mon.Latest()
	conns := make([]any, 0, len(snap.Connections))
	for _, cs := range snap.Connections {
		conns = append(conns, ConnectionFields(cs))
	}
	m := map[string]any{"connections": conns}
	if !snap.Timestamp.IsZero() {
		m["timestamp"] = snap.Timestamp.UTC().Format(time.RFC3339)
	}
	return newStruct(m)
}

func (h *Handler) Statistics(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	cs, err := h.lookup(req)
	if err != nil {
		return nil, err
	}
	st, err := h.ctl.Statistics(cs.Connection.Handle)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(StatisticsFields(st))
}

func (h *Handler) HangUp(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	cs, err := h.lookup(req)
	if err != nil {
		return nil, err
	}
	core.Log.Infof("IPC", "Hang up %q requested", cs.Connection.EntryName)
	if err := h.ctl.HangUp(cs.Connection.Handle, h.hangUp.PollInterval.Std(), h.hangUp.CloseAllEnabled()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *Handler) Projections(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	cs, err := h.lookup(req)
	if err != nil {
		return nil, err
	}
	prs, err := h.ctl.Projections(cs.Connection.Handle)
	if err != nil {
		return nil, toStatus(err)
	}
	ex, err := h.ctl.ProjectionEx(cs.Connection.Handle)
	if err != nil && !errors.Is(err, ras.ErrNotSupported) {
		return nil, toStatus(err)
	}
	if ex != nil {
		prs = append(prs, ex)
	}
	out := make([]any, 0, len(prs))
	for _, p := range prs {
		out = append(out, ProjectionFields(p))
	}
	return newStruct(map[string]any{"projections": out})
}

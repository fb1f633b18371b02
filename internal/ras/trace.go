package ras

import (
	"go.uber.org/zap"

	"rasbridge/internal/native"
)

// Tracer receives one event per native call. Arguments never include
// buffer contents, so credentials do not reach the sink.
type Tracer interface {
	Trace(call string, args []any, code native.ResultCode)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(call string, args []any, code native.ResultCode)

func (f TracerFunc) Trace(call string, args []any, code native.ResultCode) { f(call, args, code) }

// ZapTracer logs native calls at debug level.
type ZapTracer struct {
	log *zap.Logger
}

// NewZapTracer returns a tracer writing to l.
func NewZapTracer(l *zap.Logger) *ZapTracer {
	return &ZapTracer{log: l}
}

func (t *ZapTracer) Trace(call string, args []any, code native.ResultCode) {
	if ce := t.log.Check(zap.DebugLevel, "native call"); ce != nil {
		ce.Write(
			zap.String("call", call),
			zap.Any("args", args),
			zap.Uint32("code", uint32(code)),
			zap.Stringer("result", code),
		)
	}
}

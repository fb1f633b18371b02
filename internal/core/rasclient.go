package core

import (
	"rasbridge/internal/native"
	"rasbridge/internal/ras"
)

// RASClient bundles the client built from config with its allocator, which
// is a *native.TrackingAllocator when allocation tracking is enabled.
type RASClient struct {
	*ras.Client
	Alloc native.Allocator
}

// Outstanding returns the number of unreleased native buffers, or -1 when
// allocations are not tracked.
func (rc *RASClient) Outstanding() int64 {
	if t, ok := rc.Alloc.(*native.TrackingAllocator); ok {
		return t.Outstanding()
	}
	return -1
}

// NewRASClient builds a client for api from the ras section of the config.
func NewRASClient(api native.API, cfg RASConfig, log *Logger, extra ...ras.Option) *RASClient {
	alloc := native.DefaultAllocator()
	if cfg.TrackAllocations {
		alloc = native.NewTrackingAllocator(alloc)
	}
	opts := []ras.Option{ras.WithAllocator(alloc)}
	if cfg.TraceNativeCalls {
		opts = append(opts, ras.WithTracer(ras.NewZapTracer(log.Named("Native"))))
	}
	if cfg.OSVersion != nil {
		opts = append(opts, ras.WithVersion(*cfg.OSVersion))
	}
	if len(cfg.SizeCorrections) > 0 {
		opts = append(opts, ras.WithCorrections(cfg.SizeCorrections.Sorted()))
	}
	opts = append(opts, extra...)

	c := ras.NewClient(api, opts...)
	log.Infof("RAS", "Client ready for Windows %s", c.OSVersion())
	return &RASClient{Client: c, Alloc: alloc}
}

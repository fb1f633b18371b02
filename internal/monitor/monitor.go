// Package monitor polls the active RAS connections, publishes connect and
// disconnect events and keeps per-connection traffic statistics.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"rasbridge/internal/core"
	"rasbridge/internal/native"
	"rasbridge/internal/notify"
	"rasbridge/internal/ras"
)

// Source is the part of ras.Client the monitor polls.
type Source interface {
	Connections() ([]ras.Connection, error)
	Statistics(h *ras.Handle) (ras.Statistics, error)
}

// ConnectionStats is one active connection with its latest counters.
type ConnectionStats struct {
	Connection ras.Connection
	Stats      ras.Statistics
	HasStats   bool
	Since      time.Time
	SpeedTx    int64 // bytes/sec
	SpeedRx    int64 // bytes/sec
}

// Snapshot is a point-in-time view of all active connections.
type Snapshot struct {
	Connections []ConnectionStats
	Timestamp   time.Time
}

// Find returns the connection for an entry name.
func (s Snapshot) Find(entryName string) (ConnectionStats, bool) {
	for _, c := range s.Connections {
		if c.Connection.EntryName == entryName {
			return c, true
		}
	}
	return ConnectionStats{}, false
}

// Config holds parameters for creating a Monitor.
type Config struct {
	Source     Source
	EventBus   *core.EventBus
	Notifier   notify.Notifier // optional
	Interval   time.Duration
	Statistics bool
}

type tracked struct {
	conn  ras.Connection
	since time.Time
	tx    uint32
	rx    uint32
}

// Monitor periodically polls connections.
type Monitor struct {
	src        Source
	bus        *core.EventBus
	notifier   notify.Notifier
	interval   time.Duration
	statistics bool
	now        func() time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	latest    Snapshot
	listeners []chan Snapshot

	// Poll state, owned by the polling goroutine.
	known    map[native.Handle]*tracked
	lastPoll time.Time
}

// New creates a Monitor.
func New(c Config) *Monitor {
	interval := c.Interval
	if interval <= 0 {
		interval = core.DefaultMonitorPoll
	}
	return &Monitor{
		src:        c.Source,
		bus:        c.EventBus,
		notifier:   c.Notifier,
		interval:   interval,
		statistics: c.Statistics,
		now:        time.Now,
		known:      make(map[native.Handle]*tracked),
	}
}

// Start begins periodic polling. The first poll runs immediately.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx)
}

// Stop halts polling and closes all listener channels.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.listeners {
		close(ch)
	}
	m.listeners = nil
}

// Subscribe returns a channel that receives a snapshot after each poll.
func (m *Monitor) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 4)
	m.mu.Lock()
	m.listeners = append(m.listeners, ch)
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel.
func (m *Monitor) Unsubscribe(ch chan Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l == ch {
			close(l)
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Latest returns the most recent snapshot.
func (m *Monitor) Latest() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll runs one polling pass and returns the resulting snapshot. It is not
// safe to call concurrently with a running Start loop.
func (m *Monitor) Poll() Snapshot {
	conns, err := m.src.Connections()
	if err != nil {
		core.Log.Warnf("Monitor", "Enumerate connections: %v", err)
		return m.Latest()
	}

	now := m.now()
	elapsed := now.Sub(m.lastPoll)
	m.lastPoll = now

	seen := make(map[native.Handle]bool, len(conns))
	snap := Snapshot{Connections: make([]ConnectionStats, 0, len(conns)), Timestamp: now}

	for _, cn := range conns {
		raw := cn.Handle.Raw()
		seen[raw] = true
		t, ok := m.known[raw]
		if !ok {
			t = &tracked{conn: cn, since: now}
			m.known[raw] = t
			m.connectionUp(cn, now)
		}
		t.conn = cn

		cs := ConnectionStats{Connection: cn, Since: t.since}
		if m.statistics {
			m.collect(&cs, t, ok, elapsed)
		}
		snap.Connections = append(snap.Connections, cs)
	}

	for raw, t := range m.known {
		if !seen[raw] {
			delete(m.known, raw)
			m.connectionDown(t.conn, now)
		}
	}

	m.mu.Lock()
	m.latest = snap
	listeners := make([]chan Snapshot, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

// collect reads statistics for one connection. A handle that vanished
// between enumeration and the query is reported without statistics; the
// next poll sees it gone.
func (m *Monitor) collect(cs *ConnectionStats, t *tracked, seenBefore bool, elapsed time.Duration) {
	st, err := m.src.Statistics(cs.Connection.Handle)
	if err != nil {
		if !errors.Is(err, ras.ErrInvalidHandle) {
			core.Log.Warnf("Monitor", "Statistics for %s: %v", cs.Connection.EntryName, err)
		}
		return
	}
	cs.Stats = st
	cs.HasStats = true

	if seenBefore && elapsed > 0 {
		cs.SpeedTx = rate(st.BytesTransmitted, t.tx, elapsed)
		cs.SpeedRx = rate(st.BytesReceived, t.rx, elapsed)
	}
	t.tx, t.rx = st.BytesTransmitted, st.BytesReceived

	if m.bus != nil {
		m.bus.Publish(core.Event{Type: core.EventStatistics, Payload: core.StatisticsPayload{
			EntryName: cs.Connection.EntryName,
			Stats:     st,
		}})
	}
}

// rate is the per-second growth of a 32-bit counter, or 0 after a reset.
func rate(cur, prev uint32, elapsed time.Duration) int64 {
	if cur < prev {
		return 0
	}
	return int64(cur-prev) * int64(time.Second) / int64(elapsed)
}

func (m *Monitor) connectionUp(cn ras.Connection, at time.Time) {
	core.Log.Infof("Monitor", "Connection %q up on %s", cn.EntryName, cn.DeviceName)
	if m.bus != nil {
		m.bus.Publish(core.Event{Type: core.EventConnectionUp, Payload: core.ConnectionPayload{Connection: cn, At: at}})
	}
	if m.notifier != nil {
		m.notifier.NotifyConnected(cn.EntryName)
	}
}

func (m *Monitor) connectionDown(cn ras.Connection, at time.Time) {
	core.Log.Infof("Monitor", "Connection %q down", cn.EntryName)
	if m.bus != nil {
		m.bus.Publish(core.Event{Type: core.EventConnectionDown, Payload: core.ConnectionPayload{Connection: cn, At: at}})
	}
	if m.notifier != nil {
		m.notifier.NotifyDisconnected(cn.EntryName)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"google.golang.org/grpc"

	"rasbridge/internal/core"
	"rasbridge/internal/ipc"
	"rasbridge/internal/monitor"
	"rasbridge/internal/native"
	"rasbridge/internal/notify"
	"rasbridge/internal/winsvc"
)

const shutdownTimeout = 10 * time.Second

// app is one running rasmon instance.
type app struct {
	fs       afero.Fs
	api      native.API
	bus      *core.EventBus
	config   *core.ConfigManager
	client   *core.RASClient
	notifier *notify.Manager
	monitor  *monitor.Monitor
	server   *ipc.Server

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newApp(fsys afero.Fs, api native.API, configPath string) *app {
	bus := core.NewEventBus()
	return &app{
		fs:     fsys,
		api:    api,
		bus:    bus,
		config: core.NewConfigManager(fsys, configPath, bus),
		stopCh: make(chan struct{}),
	}
}

// setup loads the configuration and builds every component. idleExit
// enables the idle shutdown of ipc.idle_exit.
func (a *app) setup(idleExit bool) error {
	a.bus.Subscribe(core.EventConfigReloaded, func(core.Event) { a.applyConfig() })
	if err := a.config.Load(); err != nil {
		return fmt.Errorf("load config %s: %w", a.config.Path(), err)
	}
	cfg := a.config.Get()

	a.client = core.NewRASClient(a.api, cfg.RAS, core.Log)

	a.notifier = notify.NewManager("RAS Bridge", nil)
	a.notifier.SetEnabled(cfg.Monitor.Notify)
	a.notifier.OnError(func(err error) {
		core.Log.Warnf("Notify", "Toast failed: %v", err)
	})

	a.monitor = monitor.New(monitor.Config{
		Source:     a.client,
		EventBus:   a.bus,
		Notifier:   a.notifier,
		Interval:   cfg.Monitor.PollInterval.Std(),
		Statistics: cfg.Monitor.Statistics,
	})

	var tracker *ipc.ConnTracker
	if idleExit && cfg.IPC.IdleExit > 0 {
		tracker = ipc.NewConnTracker(cfg.IPC.IdleExit.Std(), func() {
			core.Log.Infof("Core", "No client for %s, exiting", cfg.IPC.IdleExit)
			a.Stop()
		})
	}
	handler := ipc.NewHandler(ipc.HandlerConfig{
		Monitor:    a.monitor,
		Controller: a.client,
		HangUp:     cfg.HangUp,
	})
	a.server = ipc.NewServer(handler, tracker, grpc.MaxRecvMsgSize(1<<20))

	a.bus.Subscribe(core.EventConnectionUp, func(e core.Event) {
		p := e.Payload.(core.ConnectionPayload)
		core.Log.Infof("Monitor", "%s connected via %s", p.Connection.EntryName, p.Connection.DeviceName)
	})
	a.bus.Subscribe(core.EventConnectionDown, func(e core.Event) {
		p := e.Payload.(core.ConnectionPayload)
		core.Log.Infof("Monitor", "%s disconnected", p.Connection.EntryName)
	})
	return nil
}

// applyConfig pushes reloadable settings to running components.
func (a *app) applyConfig() {
	cfg := a.config.Get()
	core.Log.SetConfig(cfg.Logging)
	if a.notifier != nil {
		a.notifier.SetEnabled(cfg.Monitor.Notify)
	}
	core.Log.Debugf("Core", "Configuration applied (version %d)", cfg.Version)
}

// Reload re-reads the configuration file.
func (a *app) Reload() {
	if err := a.config.Load(); err != nil {
		core.Log.Errorf("Core", "Reload failed, keeping previous configuration: %v", err)
	}
}

// Stop requests shutdown. Safe to call more than once.
func (a *app) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

// Run starts the monitor and the pipe server and blocks until Stop.
func (a *app) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.monitor.Start(ctx)

	pipe := a.config.Get().IPC.Pipe
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Start(pipe)
	}()
	core.Log.Infof("Core", "rasmon %s running, pipe %s", version, pipe)

	var runErr error
	select {
	case <-a.stopCh:
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = fmt.Errorf("ipc server: %w", err)
		}
	}

	core.Log.Infof("Core", "Shutting down...")
	done := make(chan struct{})
	go func() {
		a.server.Stop()
		a.monitor.Stop()
		close(done)
	}()

	select {
	case <-done:
		core.Log.Infof("Core", "Shutdown complete.")
	case <-time.After(shutdownTimeout):
		core.Log.Warnf("Core", "Shutdown timed out, forcing stop.")
		a.server.ForceStop()
	}

	if n := a.client.Outstanding(); n > 0 {
		runErr = multierr.Append(runErr, fmt.Errorf("%d native buffers still allocated at exit", n))
	}
	return multierr.Append(runErr, ignoreSyncError(core.Log.Sync()))
}

// ignoreSyncError drops the error zap reports when syncing a console.
func ignoreSyncError(err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

func runConsole(ctx context.Context, configPath string) error {
	a := newApp(afero.NewOsFs(), native.Default(), configPath)
	if err := a.setup(true); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			a.Stop()
		case <-a.stopCh:
		}
	}()

	return a.Run(ctx)
}

func runAsService(configPath string) error {
	a := newApp(afero.NewOsFs(), native.Default(), configPath)
	if err := a.setup(false); err != nil {
		return err
	}
	return winsvc.RunService(winsvc.Hooks{
		Run:    func() error { return a.Run(context.Background()) },
		Stop:   a.Stop,
		Reload: a.Reload,
	})
}

//go:build windows

package winsvc

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	statePolls    = 30
	statePollWait = 500 * time.Millisecond
)

// withService connects to the SCM, opens the rasmon service and runs fn.
func withService(op string, fn func(s *mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return &ServiceError{Op: "connect to SCM", Err: err}
	}
	defer m.Disconnect()

	s, err := m.OpenService(ServiceName)
	if err != nil {
		return &ServiceError{Op: op, Err: fmt.Errorf("open service %q: %w", ServiceName, err)}
	}
	defer s.Close()
	return fn(s)
}

// waitState polls until the service reaches want.
func waitState(s *mgr.Service, status svc.Status, want svc.State) error {
	var err error
	for i := 0; i < statePolls; i++ {
		if status.State == want {
			return nil
		}
		if want == svc.Running && status.State == svc.Stopped && i > 0 {
			return errors.New("service stopped unexpectedly")
		}
		time.Sleep(statePollWait)
		if status, err = s.Query(); err != nil {
			return fmt.Errorf("query service status: %w", err)
		}
	}
	return fmt.Errorf("timeout waiting for state %d", want)
}

// InstallService registers rasmon with the SCM.
// exePath is the full path to rasmon.exe; configPath, when set, is passed
// as --config.
func InstallService(exePath, configPath string, start StartType) error {
	m, err := mgr.Connect()
	if err != nil {
		return &ServiceError{Op: "connect to SCM", Err: err}
	}
	defer m.Disconnect()

	if s, err := m.OpenService(ServiceName); err == nil {
		s.Close()
		return &ServiceError{Op: "install", Err: fmt.Errorf("service %q already exists", ServiceName)}
	}

	args := []string{"--service"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	s, err := m.CreateService(ServiceName, exePath, mgr.Config{
		DisplayName:      ServiceDisplayName,
		Description:      ServiceDescription,
		StartType:        uint32(start),
		ServiceStartName: "LocalSystem",
	}, args...)
	if err != nil {
		return &ServiceError{Op: "create service", Err: err}
	}
	defer s.Close()

	// Restart after 5 seconds on the first two failures, then after 30.
	// Reset the failure count after 24h. Failure here is non-fatal.
	_ = s.SetRecoveryActions([]mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 5 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
	}, 86400)
	return nil
}

// UninstallService stops and removes the service.
func UninstallService() error {
	return withService("uninstall", func(s *mgr.Service) error {
		if status, err := s.Control(svc.Stop); err == nil {
			_ = waitState(s, status, svc.Stopped)
		}
		if err := s.Delete(); err != nil {
			return &ServiceError{Op: "delete service", Err: err}
		}
		return nil
	})
}

// StartService starts the service and waits until it runs.
func StartService() error {
	return withService("start", func(s *mgr.Service) error {
		if err := s.Start(); err != nil {
			return &ServiceError{Op: "start service", Err: err}
		}
		status, err := s.Query()
		if err != nil {
			return &ServiceError{Op: "query service status", Err: err}
		}
		if err := waitState(s, status, svc.Running); err != nil {
			return &ServiceError{Op: "start service", Err: err}
		}
		return nil
	})
}

// StopService stops the service and waits until it has stopped.
func StopService() error {
	return withService("stop", func(s *mgr.Service) error {
		status, err := s.Control(svc.Stop)
		if err != nil {
			return &ServiceError{Op: "stop service", Err: err}
		}
		if err := waitState(s, status, svc.Stopped); err != nil {
			return &ServiceError{Op: "stop service", Err: err}
		}
		return nil
	})
}

// ReloadService asks a running service to reload its configuration.
func ReloadService() error {
	return withService("reload", func(s *mgr.Service) error {
		if _, err := s.Control(svc.ParamChange); err != nil {
			return &ServiceError{Op: "reload service", Err: err}
		}
		return nil
	})
}

// ServiceState reports whether the service is installed and running.
func ServiceState() (installed, running bool) {
	_ = withService("query", func(s *mgr.Service) error {
		installed = true
		status, err := s.Query()
		if err != nil {
			return err
		}
		running = status.State == svc.Running
		return nil
	})
	return installed, running
}

// SetStartType changes the service start type.
func SetStartType(start StartType) error {
	return withService("set start type", func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return &ServiceError{Op: "query config", Err: err}
		}
		cfg.StartType = uint32(start)
		if err := s.UpdateConfig(cfg); err != nil {
			return &ServiceError{Op: "update config", Err: err}
		}
		return nil
	})
}

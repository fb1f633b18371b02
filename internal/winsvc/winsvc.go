//go:build windows

package winsvc

import (
	"sync"
	"time"

	"golang.org/x/sys/windows/svc"
)

// IsWindowsService reports whether the current process is running as a Windows Service.
func IsWindowsService() bool {
	isSvc, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isSvc
}

// RunService runs the process as a Windows Service.
// This function blocks until the service is stopped.
func RunService(hooks Hooks) error {
	h := &serviceHandler{hooks: hooks}
	if err := svc.Run(ServiceName, h); err != nil {
		return &ServiceError{Op: "run", Err: err}
	}
	return nil
}

// serviceHandler implements svc.Handler for the Windows Service Control Manager.
type serviceHandler struct {
	hooks Hooks
	once  sync.Once
}

// Execute is called by the Windows SCM. It must respond to service control commands.
func (h *serviceHandler) Execute(args []string, r <-chan svc.ChangeRequest, s chan<- svc.Status) (bool, uint32) {
	s <- svc.Status{State: svc.StartPending}

	accepted := svc.AcceptStop | svc.AcceptShutdown
	if h.hooks.Reload != nil {
		accepted |= svc.AcceptParamChange
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.hooks.Run()
	}()

	// Run blocks for the life of the service, so report Running now.
	s <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case cr := <-r:
			switch cr.Cmd {
			case svc.Interrogate:
				s <- cr.CurrentStatus
				// Resend after short delay per Windows docs.
				time.Sleep(100 * time.Millisecond)
				s <- cr.CurrentStatus
			case svc.ParamChange:
				if h.hooks.Reload != nil {
					h.hooks.Reload()
				}
				s <- cr.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s <- svc.Status{State: svc.StopPending}
				h.once.Do(h.hooks.Stop)
				<-errCh
				return false, 0
			}
		case err := <-errCh:
			if err != nil {
				return true, 1
			}
			return false, 0
		}
	}
}

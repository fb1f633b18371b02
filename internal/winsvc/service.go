// Package winsvc runs rasmon under the Windows Service Control Manager and
// manages its registration.
package winsvc

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ServiceName        = "RasBridgeMonitor"
	ServiceDisplayName = "RAS Bridge Connection Monitor"
	ServiceDescription = "Watches dial-up and VPN connections and serves their status to rasctl"
)

// ErrUnsupported is returned on platforms without a service manager.
var ErrUnsupported = errors.New("winsvc: Windows services are not available on this platform")

// StartType is a service start mode. The values match the SCM constants.
type StartType uint32

const (
	StartAutomatic StartType = 2
	StartManual    StartType = 3
	StartDisabled  StartType = 4
)

func (t StartType) String() string {
	switch t {
	case StartAutomatic:
		return "auto"
	case StartManual:
		return "manual"
	case StartDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("StartType(%d)", uint32(t))
	}
}

// ParseStartType parses "auto", "manual" or "disabled".
func ParseStartType(s string) (StartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "automatic", "":
		return StartAutomatic, nil
	case "manual", "demand":
		return StartManual, nil
	case "disabled":
		return StartDisabled, nil
	default:
		return 0, fmt.Errorf("unknown start type: %q", s)
	}
}

// Hooks connect the SCM to the program. Run blocks until Stop is called.
// Reload, when set, is invoked on a parameter-change request.
type Hooks struct {
	Run    func() error
	Stop   func()
	Reload func()
}

// ServiceError wraps service-related errors with context.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("winsvc: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

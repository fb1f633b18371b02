//go:build !windows

package winsvc

// IsWindowsService is always false off Windows.
func IsWindowsService() bool { return false }

func RunService(Hooks) error { return ErrUnsupported }

func InstallService(string, string, StartType) error { return ErrUnsupported }

func UninstallService() error { return ErrUnsupported }

func StartService() error { return ErrUnsupported }

func StopService() error { return ErrUnsupported }

func ReloadService() error { return ErrUnsupported }

func ServiceState() (installed, running bool) { return false, false }

func SetStartType(StartType) error { return ErrUnsupported }

//go:build !windows

package notify

// DefaultSender drops notifications; there is no toast service.
func DefaultSender(string) Sender {
	return func(string, string) error { return nil }
}

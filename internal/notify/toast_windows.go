//go:build windows

package notify

import "github.com/go-toast/toast"

// DefaultSender shows a Windows toast notification.
func DefaultSender(appName string) Sender {
	return func(title, message string) error {
		n := toast.Notification{
			AppID:   appName,
			Title:   title,
			Message: message,
		}
		return n.Push()
	}
}

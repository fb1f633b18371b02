// Package notify shows desktop notifications for connection changes.
package notify

import (
	"sync"
	"time"
)

// DefaultThrottle is the minimum gap between two notifications with the
// same key.
const DefaultThrottle = 30 * time.Second

// Sender delivers one notification.
type Sender func(title, message string) error

// Notifier is what the monitor needs from a notification manager.
type Notifier interface {
	NotifyConnected(entryName string)
	NotifyDisconnected(entryName string)
	NotifyDialFailed(entryName, message string)
}

// Manager sends notifications with per-key throttling.
type Manager struct {
	mu        sync.Mutex
	enabled   bool
	lastNotif map[string]time.Time
	throttle  time.Duration
	send      Sender
	now       func() time.Time
	onError   func(error)
}

// NewManager creates a manager delivering through send. A nil send uses
// the platform default.
func NewManager(appName string, send Sender) *Manager {
	if send == nil {
		send = DefaultSender(appName)
	}
	return &Manager{
		enabled:   true,
		lastNotif: make(map[string]time.Time),
		throttle:  DefaultThrottle,
		send:      send,
		now:       time.Now,
	}
}

// SetEnabled turns notifications on or off.
func (nm *Manager) SetEnabled(enabled bool) {
	nm.mu.Lock()
	nm.enabled = enabled
	nm.mu.Unlock()
}

// OnError sets a callback for failed deliveries.
func (nm *Manager) OnError(fn func(error)) {
	nm.mu.Lock()
	nm.onError = fn
	nm.mu.Unlock()
}

// NotifyConnected reports a connection that came up.
func (nm *Manager) NotifyConnected(entryName string) {
	nm.maybeSend("connected:"+entryName, "Connected", entryName+" is connected")
}

// NotifyDisconnected reports a connection that went away.
func (nm *Manager) NotifyDisconnected(entryName string) {
	nm.maybeSend("disconnected:"+entryName, "Connection lost", entryName+" was disconnected")
}

// NotifyDialFailed reports a failed dial attempt.
func (nm *Manager) NotifyDialFailed(entryName, message string) {
	nm.maybeSend("dial_failed:"+entryName, "Connection failed", entryName+": "+message)
}

func (nm *Manager) maybeSend(key, title, message string) {
	nm.mu.Lock()
	if !nm.enabled {
		nm.mu.Unlock()
		return
	}
	now := nm.now()
	if last, ok := nm.lastNotif[key]; ok && now.Sub(last) < nm.throttle {
		nm.mu.Unlock()
		return
	}
	nm.lastNotif[key] = now
	send, onError := nm.send, nm.onError
	nm.mu.Unlock()

	go func() {
		if err := send(title, message); err != nil && onError != nil {
			onError(err)
		}
	}()
}

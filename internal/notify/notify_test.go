package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct{ title, message string }

func recorder() (Sender, chan sent) {
	ch := make(chan sent, 16)
	return func(title, message string) error {
		ch <- sent{title, message}
		return nil
	}, ch
}

func receive(t *testing.T, ch chan sent) sent {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		require.FailNow(t, "no notification sent")
		return sent{}
	}
}

func TestManagerThrottlesPerKey(t *testing.T) {
	send, ch := recorder()
	nm := NewManager("rasbridge", send)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	nm.now = func() time.Time { return now }

	nm.NotifyConnected("Office VPN")
	assert.Equal(t, sent{"Connected", "Office VPN is connected"}, receive(t, ch))

	nm.NotifyConnected("Office VPN")
	nm.NotifyDisconnected("Office VPN")
	assert.Equal(t, sent{"Connection lost", "Office VPN was disconnected"}, receive(t, ch))

	now = now.Add(DefaultThrottle)
	nm.NotifyConnected("Office VPN")
	assert.Equal(t, "Connected", receive(t, ch).title)
	assert.Empty(t, ch)
}

func TestManagerDisabled(t *testing.T) {
	send, ch := recorder()
	nm := NewManager("rasbridge", send)
	nm.SetEnabled(false)

	nm.NotifyDialFailed("Office VPN", "authentication failed")
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, ch)
}

func TestManagerReportsSendErrors(t *testing.T) {
	errs := make(chan error, 1)
	nm := NewManager("rasbridge", func(string, string) error { return errors.New("no toast service") })
	nm.OnError(func(err error) { errs <- err })

	nm.NotifyDialFailed("Office VPN", "line busy")
	select {
	case err := <-errs:
		assert.EqualError(t, err, "no toast service")
	case <-time.After(time.Second):
		t.Fatal("error not reported")
	}
}

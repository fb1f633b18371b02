package ras

import (
	"fmt"
	"net/netip"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// ConnState is a RASCONNSTATE value.
type ConnState uint32

const (
	StateOpenPort ConnState = iota
	StatePortOpened
	StateConnectDevice
	StateDeviceConnected
	StateAllDevicesConnected
	StateAuthenticate
	StateAuthNotify
	StateAuthRetry
	StateAuthCallback
	StateAuthChangePassword
	StateAuthProject
	StateAuthLinkSpeed
	StateAuthAck
	StateReAuthenticate
	StateAuthenticated
	StatePrepareForCallback
	StateWaitForModemReset
	StateWaitForCallback
	StateProjected
	StateStartAuthentication
	StateCallbackComplete
	StateLogonNetwork
	StateSubEntryConnected
	StateSubEntryDisconnected
	StateApplySettings
)

const (
	StateInteractive ConnState = 0x1000 + iota
	StateRetryAuthentication
	StateCallbackSetByCaller
	StatePasswordExpired
	StateInvokeEapUI
)

const (
	StateConnected ConnState = 0x2000 + iota
	StateDisconnected
)

var connStateNames = map[ConnState]string{
	StateOpenPort:             "OpenPort",
	StatePortOpened:           "PortOpened",
	StateConnectDevice:        "ConnectDevice",
	StateDeviceConnected:      "DeviceConnected",
	StateAllDevicesConnected:  "AllDevicesConnected",
	StateAuthenticate:         "Authenticate",
	StateAuthNotify:           "AuthNotify",
	StateAuthRetry:            "AuthRetry",
	StateAuthCallback:         "AuthCallback",
	StateAuthChangePassword:   "AuthChangePassword",
	StateAuthProject:          "AuthProject",
	StateAuthLinkSpeed:        "AuthLinkSpeed",
	StateAuthAck:              "AuthAck",
	StateReAuthenticate:       "ReAuthenticate",
	StateAuthenticated:        "Authenticated",
	StatePrepareForCallback:   "PrepareForCallback",
	StateWaitForModemReset:    "WaitForModemReset",
	StateWaitForCallback:      "WaitForCallback",
	StateProjected:            "Projected",
	StateStartAuthentication:  "StartAuthentication",
	StateCallbackComplete:     "CallbackComplete",
	StateLogonNetwork:         "LogonNetwork",
	StateSubEntryConnected:    "SubEntryConnected",
	StateSubEntryDisconnected: "SubEntryDisconnected",
	StateApplySettings:        "ApplySettings",
	StateInteractive:          "Interactive",
	StateRetryAuthentication:  "RetryAuthentication",
	StateCallbackSetByCaller:  "CallbackSetByCaller",
	StatePasswordExpired:      "PasswordExpired",
	StateInvokeEapUI:          "InvokeEapUI",
	StateConnected:            "Connected",
	StateDisconnected:         "Disconnected",
}

func (s ConnState) String() string {
	if n, ok := connStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("ConnState(%#x)", uint32(s))
}

// Terminal reports whether no further dial progress follows s.
func (s ConnState) Terminal() bool { return s == StateConnected || s == StateDisconnected }

// ConnectionStatus is a decoded RASCONNSTATUS.
type ConnectionStatus struct {
	State          ConnState
	ErrorCode      native.ResultCode
	DeviceType     string
	DeviceName     string
	PhoneNumber    string
	LocalEndpoint  netip.Addr
	RemoteEndpoint netip.Addr
	SubState       uint32
}

// Tunnel endpoint address families.
const (
	endpointIPv4 = 1
	endpointIPv6 = 2
)

func decodeConnStatus(rec layout.Record) ConnectionStatus {
	s := ConnectionStatus{
		State:       ConnState(rec.U32("rasconnstate")),
		ErrorCode:   native.ResultCode(rec.U32("dwError")),
		DeviceType:  rec.String("szDeviceType"),
		DeviceName:  rec.String("szDeviceName"),
		PhoneNumber: rec.String("szPhoneNumber"),
		SubState:    rec.U32("rasconnsubstate"),
	}
	if ep, ok := rec.Sub("localEndPoint"); ok {
		s.LocalEndpoint = decodeEndpoint(ep)
	}
	if ep, ok := rec.Sub("remoteEndPoint"); ok {
		s.RemoteEndpoint = decodeEndpoint(ep)
	}
	return s
}

func decodeEndpoint(rec layout.Record) netip.Addr {
	b := rec.Bytes("addr")
	switch rec.U32("dwType") {
	case endpointIPv4:
		return netip.AddrFrom4([4]byte(b[:4]))
	case endpointIPv6:
		return netip.AddrFrom16([16]byte(b))
	}
	return netip.Addr{}
}

func encodeConnStatus(rec layout.Record, s ConnectionStatus) error {
	w := writer{rec: rec}
	rec.SetSize()
	rec.SetU32("rasconnstate", uint32(s.State))
	rec.SetU32("dwError", uint32(s.ErrorCode))
	w.str("szDeviceType", s.DeviceType)
	w.str("szDeviceName", s.DeviceName)
	w.str("szPhoneNumber", s.PhoneNumber)
	rec.SetU32("rasconnsubstate", s.SubState)
	if ep, ok := rec.Sub("localEndPoint"); ok {
		encodeEndpoint(ep, s.LocalEndpoint)
	}
	if ep, ok := rec.Sub("remoteEndPoint"); ok {
		encodeEndpoint(ep, s.RemoteEndpoint)
	}
	return w.err
}

func encodeEndpoint(rec layout.Record, a netip.Addr) {
	switch {
	case a.Is4():
		rec.SetU32("dwType", endpointIPv4)
		v := a.As4()
		_ = rec.SetBytes("addr", v[:])
	case a.Is6():
		rec.SetU32("dwType", endpointIPv6)
		v := a.As16()
		_ = rec.SetBytes("addr", v[:])
	}
}

// Status returns the current state of the connection.
func (c *Client) Status(h *Handle) (ConnectionStatus, error) {
	const op = "Status"
	if err := c.use(op, h); err != nil {
		return ConnectionStatus{}, err
	}
	var st ConnectionStatus
	err := c.withBuffer(op, c.layoutOf(defRASCONNSTATUS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASCONNSTATUS, buf)
		if err != nil {
			return err
		}
		rec.SetSize()
		code := c.call("RasGetConnectStatus", func() native.ResultCode {
			return c.api.GetConnectStatus(h.raw, buf)
		}, h.raw)
		if code != native.Success {
			return c.handleFail(op, h)(code)
		}
		st = decodeConnStatus(rec)
		return nil
	})
	return st, err
}

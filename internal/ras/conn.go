package ras

import (
	"github.com/google/uuid"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// RASCONN dwFlags.
const (
	ConnAllUsers       uint32 = 0x00000001
	ConnGlobalCreds    uint32 = 0x00000002
	ConnDefaultCreds   uint32 = 0x00000004
	ConnRemoveDefCreds uint32 = 0x00000008
)

// Connection is a decoded RASCONN.
type Connection struct {
	Handle        *Handle
	EntryName     string
	DeviceType    string
	DeviceName    string
	PhoneBook     string
	SubEntry      uint32
	EntryID       uuid.UUID
	Flags         uint32
	LUID          uint64
	CorrelationID uuid.UUID
}

func decodeConnection(rec layout.Record) Connection {
	return Connection{
		Handle:        newHandle(native.Handle(rec.Ptr("hrasconn")), false),
		EntryName:     rec.String("szEntryName"),
		DeviceType:    rec.String("szDeviceType"),
		DeviceName:    rec.String("szDeviceName"),
		PhoneBook:     rec.String("szPhonebook"),
		SubEntry:      rec.U32("dwSubEntry"),
		EntryID:       rec.GUID("guidEntry"),
		Flags:         rec.U32("dwFlags"),
		LUID:          rec.LUID("luid"),
		CorrelationID: rec.GUID("guidCorrelationId"),
	}
}

func encodeConnection(rec layout.Record, cn Connection) error {
	w := writer{rec: rec}
	rec.SetSize()
	if cn.Handle != nil {
		rec.SetPtr("hrasconn", uint64(cn.Handle.raw))
	}
	w.str("szEntryName", cn.EntryName)
	w.str("szDeviceType", cn.DeviceType)
	w.str("szDeviceName", cn.DeviceName)
	w.str("szPhonebook", cn.PhoneBook)
	rec.SetU32("dwSubEntry", cn.SubEntry)
	rec.SetGUID("guidEntry", cn.EntryID)
	rec.SetU32("dwFlags", cn.Flags)
	rec.SetLUID("luid", cn.LUID)
	rec.SetGUID("guidCorrelationId", cn.CorrelationID)
	return w.err
}

// Connections lists the active connections. A missing phone book or an
// empty list yields no connections and no error.
func (c *Client) Connections() ([]Connection, error) {
	const op = "Connections"
	l := c.layoutOf(defRASCONN)
	var out []Connection
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(l.Size),
		prepare: c.sizedPrepare(defRASCONN),
		invoke: func(buf *native.Buffer, size, count *uint32) native.ResultCode {
			return c.call("RasEnumConnections", func() native.ResultCode {
				return c.api.EnumConnections(buf, size, count)
			})
		},
		consume: func(buf *native.Buffer, _, count uint32) error {
			for i := 0; i < int(count); i++ {
				rec, err := layout.At(l, buf.Bytes(), i)
				if err != nil {
					return err
				}
				out = append(out, decodeConnection(rec))
			}
			return nil
		},
		empty: notFound,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectionByName returns the active connection for an entry, or
// ErrNoConnection when none is active.
func (c *Client) ConnectionByName(entryName string) (Connection, error) {
	const op = "ConnectionByName"
	if entryName == "" {
		return Connection{}, argError(op, "entryName", "empty")
	}
	conns, err := c.Connections()
	if err != nil {
		return Connection{}, err
	}
	for _, cn := range conns {
		if cn.EntryName == entryName {
			return cn, nil
		}
	}
	return Connection{}, &NativeError{Op: op, Code: native.ErrorNoConnection}
}

// SubEntryHandle returns the handle of one link of a multilink connection.
// Sub-entry indexes start at 1.
func (c *Client) SubEntryHandle(h *Handle, index uint32) (*Handle, error) {
	const op = "SubEntryHandle"
	if err := c.use(op, h); err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, argError(op, "index", "sub-entry indexes start at 1")
	}
	var sub native.Handle
	code := c.call("RasGetSubEntryHandle", func() native.ResultCode {
		return c.api.GetSubEntryHandle(h.raw, index, &sub)
	}, h.raw, index)
	if code != native.Success {
		return nil, c.handleFail(op, h)(code)
	}
	return newHandle(sub, true), nil
}

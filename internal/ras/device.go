package ras

import (
	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// Device types reported in RASDEVINFO.szDeviceType.
const (
	DeviceModem    = "modem"
	DeviceISDN     = "isdn"
	DeviceX25      = "x25"
	DeviceVPN      = "vpn"
	DevicePad      = "pad"
	DeviceGeneric  = "GENERIC"
	DeviceSerial   = "SERIAL"
	DeviceFrame    = "FRAMERELAY"
	DeviceATM      = "ATM"
	DeviceSonet    = "SONET"
	DeviceSW56     = "SW56"
	DeviceIrDA     = "IRDA"
	DeviceParallel = "PARALLEL"
	DevicePPPoE    = "PPPoE"
)

// Device is a decoded RASDEVINFO.
type Device struct {
	Type string
	Name string
}

func decodeDevice(rec layout.Record) Device {
	return Device{Type: rec.String("szDeviceType"), Name: rec.String("szDeviceName")}
}

func encodeDevice(rec layout.Record, d Device) error {
	w := writer{rec: rec}
	rec.SetSize()
	w.str("szDeviceType", d.Type)
	w.str("szDeviceName", d.Name)
	return w.err
}

// Devices lists the RAS-capable devices.
func (c *Client) Devices() ([]Device, error) {
	const op = "Devices"
	l := c.layoutOf(defRASDEVINFO)
	var out []Device
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(l.Size),
		prepare: c.sizedPrepare(defRASDEVINFO),
		invoke: func(buf *native.Buffer, size, count *uint32) native.ResultCode {
			return c.call("RasEnumDevices", func() native.ResultCode {
				return c.api.EnumDevices(buf, size, count)
			})
		},
		consume: func(buf *native.Buffer, _, count uint32) error {
			for i := 0; i < int(count); i++ {
				rec, err := layout.At(l, buf.Bytes(), i)
				if err != nil {
					return err
				}
				out = append(out, decodeDevice(rec))
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

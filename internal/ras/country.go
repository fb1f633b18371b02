package ras

import (
	"fmt"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// Country is a decoded RASCTRYINFO with its trailing name.
type Country struct {
	ID     uint32
	NextID uint32
	Code   uint32
	Name   string
}

func decodeCountry(rec layout.Record) (Country, error) {
	ct := Country{
		ID:     rec.U32("dwCountryID"),
		NextID: rec.U32("dwNextCountryID"),
		Code:   rec.U32("dwCountryCode"),
	}
	off := int(rec.U32("dwCountryNameOffset"))
	if off == 0 {
		return ct, nil
	}
	if off < rec.L.Size || off >= len(rec.B) {
		return Country{}, fmt.Errorf("ras: RASCTRYINFO.dwCountryNameOffset %d outside %d-byte buffer", off, len(rec.B))
	}
	name, err := layout.DecodeUTF16(rec.B[off:])
	if err != nil {
		return Country{}, err
	}
	ct.Name = name
	return ct, nil
}

// countryImage returns the trailing name bytes of ct, NUL-terminated.
func countryImage(ct Country) ([]byte, error) {
	name, err := layout.EncodeUTF16(ct.Name)
	if err != nil {
		return nil, err
	}
	return append(name, 0, 0), nil
}

func encodeCountry(rec layout.Record, ct Country, name []byte) {
	rec.SetSize()
	rec.SetU32("dwCountryID", ct.ID)
	rec.SetU32("dwNextCountryID", ct.NextID)
	rec.SetU32("dwCountryCode", ct.Code)
	putTrailing(rec, "dwCountryNameOffset", rec.L.Size, name)
}

// Country returns the dialing information of one country by TAPI id.
func (c *Client) Country(id uint32) (Country, error) {
	const op = "Country"
	if id == 0 {
		return Country{}, argError(op, "id", "country ids start at 1")
	}
	l := c.layoutOf(defRASCTRYINFO)
	var ct Country
	err := c.negotiate(negotiation{
		op: op,
		// Room for the record and a typical name; the native layer asks
		// for more when needed.
		initial: uint32(l.Size + 256),
		prepare: func(buf *native.Buffer) error {
			rec, err := c.record(defRASCTRYINFO, buf)
			if err != nil {
				return err
			}
			rec.SetSize()
			rec.SetU32("dwCountryID", id)
			return nil
		},
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			return c.call("RasGetCountryInfo", func() native.ResultCode {
				return c.api.GetCountryInfo(buf, size)
			}, id)
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			rec, err := c.record(defRASCTRYINFO, buf)
			if err != nil {
				return err
			}
			ct, err = decodeCountry(rec)
			return err
		},
	})
	return ct, err
}

// Countries walks the country list from the first id until dwNextCountryID
// is zero.
func (c *Client) Countries() ([]Country, error) {
	var out []Country
	seen := make(map[uint32]bool)
	for id := uint32(1); id != 0; {
		if seen[id] {
			return nil, fmt.Errorf("ras: Countries: country list loops at id %d", id)
		}
		seen[id] = true
		ct, err := c.Country(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
		id = ct.NextID
	}
	return out, nil
}

// errorStringChars is the initial RasGetErrorString buffer, in characters.
const errorStringChars = 256

// ErrorString returns the system message for a RAS or Win32 result code.
func (c *Client) ErrorString(code native.ResultCode) (string, error) {
	const op = "ErrorString"
	var msg string
	err := c.negotiate(negotiation{
		op:      op,
		initial: 2 * errorStringChars,
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			r := c.call("RasGetErrorString", func() native.ResultCode {
				return c.api.GetErrorString(uint32(code), buf)
			}, uint32(code))
			// The native call does not report a size; grow geometrically.
			if r.IsBufferTooSmall() {
				*size *= 2
			}
			return r
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			s, err := layout.DecodeUTF16(buf.Bytes())
			msg = s
			return err
		},
	})
	return msg, err
}

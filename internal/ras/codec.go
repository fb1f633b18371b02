package ras

import (
	"net/netip"

	"rasbridge/internal/layout"
)

// writer sets record fields and keeps the first error.
type writer struct {
	rec layout.Record
	err error
}

func (w *writer) str(name, v string) {
	if w.err != nil {
		return
	}
	if err := w.rec.SetString(name, v); err != nil {
		w.err = err
	}
}

func (w *writer) bytes(name string, v []byte) {
	if w.err != nil {
		return
	}
	if err := w.rec.SetBytes(name, v); err != nil {
		w.err = err
	}
}

func (w *writer) ipv4(name string, a netip.Addr) {
	if !a.IsValid() {
		w.bytes(name, nil)
		return
	}
	if !a.Is4() {
		if w.err == nil {
			w.err = &ArgumentError{Op: "encode", Arg: name, Reason: a.String() + " is not an IPv4 address"}
		}
		return
	}
	v := a.As4()
	w.bytes(name, v[:])
}

func (w *writer) ipv6(name string, a netip.Addr) {
	if !a.IsValid() {
		w.bytes(name, nil)
		return
	}
	v := a.As16()
	w.bytes(name, v[:])
}

// ipv4At reads a 4-byte address. All zeros decodes as 0.0.0.0; only a
// field missing from the layout yields the zero Addr.
func ipv4At(rec layout.Record, name string) netip.Addr {
	b := rec.Bytes(name)
	if len(b) < 4 {
		return netip.Addr{}
	}
	return netip.AddrFrom4([4]byte(b[:4]))
}

func ipv6At(rec layout.Record, name string) netip.Addr {
	b := rec.Bytes(name)
	if len(b) < 16 {
		return netip.Addr{}
	}
	return netip.AddrFrom16([16]byte(b[:16]))
}

// parseAddr reads a dotted address string field.
func parseAddr(rec layout.Record, name string) netip.Addr {
	a, err := netip.ParseAddr(rec.String(name))
	if err != nil {
		return netip.Addr{}
	}
	return a
}

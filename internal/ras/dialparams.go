package ras

import (
	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// DialParams is a RASDIALPARAMS. Either EntryName or PhoneNumber must be set
// to dial.
type DialParams struct {
	EntryName      string
	PhoneNumber    string
	CallbackNumber string
	UserName       string
	Password       string
	Domain         string
	SubEntry       uint32
	InterfaceIndex uint32
}

func encodeDialParams(rec layout.Record, p DialParams, callbackID uint64) error {
	w := writer{rec: rec}
	rec.SetSize()
	w.str("szEntryName", p.EntryName)
	w.str("szPhoneNumber", p.PhoneNumber)
	w.str("szCallbackNumber", p.CallbackNumber)
	w.str("szUserName", p.UserName)
	w.str("szPassword", p.Password)
	w.str("szDomain", p.Domain)
	rec.SetU32("dwSubEntry", p.SubEntry)
	rec.SetPtr("dwCallbackId", callbackID)
	rec.SetU32("dwIfIndex", p.InterfaceIndex)
	return w.err
}

func decodeDialParams(rec layout.Record) DialParams {
	return DialParams{
		EntryName:      rec.String("szEntryName"),
		PhoneNumber:    rec.String("szPhoneNumber"),
		CallbackNumber: rec.String("szCallbackNumber"),
		UserName:       rec.String("szUserName"),
		Password:       rec.String("szPassword"),
		Domain:         rec.String("szDomain"),
		SubEntry:       rec.U32("dwSubEntry"),
		InterfaceIndex: rec.U32("dwIfIndex"),
	}
}

// RASDIALEXTENSIONS dwfOptions.
const (
	DialUsePrefixSuffix       uint32 = 0x00000001
	DialPausedStates          uint32 = 0x00000002
	DialIgnoreModemSpeaker    uint32 = 0x00000004
	DialSetModemSpeaker       uint32 = 0x00000008
	DialIgnoreSoftwareCompr   uint32 = 0x00000010
	DialSetSoftwareCompr      uint32 = 0x00000020
	DialDisableConnectedUI    uint32 = 0x00000040
	DialDisableReconnectUI    uint32 = 0x00000080
	DialDisableReconnect      uint32 = 0x00000100
	DialNoUser                uint32 = 0x00000200
	DialPauseOnScript         uint32 = 0x00000400
	DialRouter                uint32 = 0x00000800
	DialCustomDial            uint32 = 0x00001000
	DialUseCustomScripting    uint32 = 0x00002000
	DialInvokeNapRemediation  uint32 = 0x00004000
	DialSkipPPPAuthentication uint32 = 0x00008000
)

// DialExtensions is a RASDIALEXTENSIONS. EapData is copied into the same
// native buffer, after the fixed record, and referenced by pointer.
type DialExtensions struct {
	Options      uint32
	ParentWindow uintptr
	EapData      []byte
	SkipPPPAuth  bool
}

// dialExtensionsSize is the buffer size needed for e.
func (c *Client) dialExtensionsSize(e DialExtensions) int {
	return c.layoutOf(defRASDIALEXTENSIONS).Size + len(e.EapData)
}

// encodeDialExtensions writes e into buf, which must hold dialExtensionsSize bytes.
func (c *Client) encodeDialExtensions(buf *native.Buffer, e DialExtensions) error {
	rec, err := c.record(defRASDIALEXTENSIONS, buf)
	if err != nil {
		return err
	}
	rec.SetSize()
	rec.SetU32("dwfOptions", e.Options)
	rec.SetPtr("hwndParent", uint64(e.ParentWindow))
	rec.SetBool("fSkipPppAuth", e.SkipPPPAuth)
	if eap, ok := rec.Sub("RasEapInfo"); ok && len(e.EapData) > 0 {
		off := rec.L.Size
		copy(buf.Bytes()[off:], e.EapData)
		eap.SetU32("dwSizeofEapInfo", uint32(len(e.EapData)))
		eap.SetPtr("pbEapInfo", uint64(buf.Addr())+uint64(off))
	}
	if dev, ok := rec.Sub("RasDevSpecificInfo"); ok {
		dev.SetSize()
	}
	return nil
}

func (c *Client) decodeDialExtensions(buf *native.Buffer) (DialExtensions, error) {
	rec, err := c.record(defRASDIALEXTENSIONS, buf)
	if err != nil {
		return DialExtensions{}, err
	}
	e := DialExtensions{
		Options:      rec.U32("dwfOptions"),
		ParentWindow: uintptr(rec.Ptr("hwndParent")),
		SkipPPPAuth:  rec.Bool("fSkipPppAuth"),
	}
	if eap, ok := rec.Sub("RasEapInfo"); ok {
		n := uint64(eap.U32("dwSizeofEapInfo"))
		if b, ok := bufferSlice(buf, eap.Ptr("pbEapInfo"), n); ok && n > 0 {
			e.EapData = append([]byte(nil), b...)
		}
	}
	return e, nil
}

// bufferSlice returns the n bytes at native address ptr when they lie
// inside buf.
func bufferSlice(buf *native.Buffer, ptr, n uint64) ([]byte, bool) {
	base := uint64(buf.Addr())
	if base == 0 || ptr < base || ptr+n > base+uint64(buf.Len()) {
		return nil, false
	}
	off := ptr - base
	return buf.Bytes()[off : off+n], true
}

// RASCREDENTIALS dwMask.
const (
	CredUserName           uint32 = 0x00000001
	CredPassword           uint32 = 0x00000002
	CredDomain             uint32 = 0x00000004
	CredDefaultCreds       uint32 = 0x00000008
	CredPreSharedKey       uint32 = 0x00000010
	CredServerPreSharedKey uint32 = 0x00000020
	CredDDMPreSharedKey    uint32 = 0x00000040
)

// Credentials is a RASCREDENTIALS. Mask selects which fields are valid.
type Credentials struct {
	Mask     uint32
	UserName string
	Password string
	Domain   string
}

func encodeCredentials(rec layout.Record, cr Credentials) error {
	w := writer{rec: rec}
	rec.SetSize()
	rec.SetU32("dwMask", cr.Mask)
	w.str("szUserName", cr.UserName)
	w.str("szPassword", cr.Password)
	w.str("szDomain", cr.Domain)
	return w.err
}

func decodeCredentials(rec layout.Record) Credentials {
	return Credentials{
		Mask:     rec.U32("dwMask"),
		UserName: rec.String("szUserName"),
		Password: rec.String("szPassword"),
		Domain:   rec.String("szDomain"),
	}
}

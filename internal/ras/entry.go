package ras

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// RASENTRY dwfOptions.
const (
	EntryUseCountryAndAreaCodes uint32 = 0x00000001
	EntrySpecificIPAddr         uint32 = 0x00000002
	EntrySpecificNameServers    uint32 = 0x00000004
	EntryIPHeaderCompression    uint32 = 0x00000008
	EntryRemoteDefaultGateway   uint32 = 0x00000010
	EntryDisableLcpExtensions   uint32 = 0x00000020
	EntryTerminalBeforeDial     uint32 = 0x00000040
	EntryTerminalAfterDial      uint32 = 0x00000080
	EntryModemLights            uint32 = 0x00000100
	EntrySwCompression          uint32 = 0x00000200
	EntryRequireEncryptedPw     uint32 = 0x00000400
	EntryRequireMsEncryptedPw   uint32 = 0x00000800
	EntryRequireDataEncryption  uint32 = 0x00001000
	EntryNetworkLogon           uint32 = 0x00002000
	EntryUseLogonCredentials    uint32 = 0x00004000
	EntryPromoteAlternates      uint32 = 0x00008000
	EntrySecureLocalFiles       uint32 = 0x00010000
	EntryRequireEAP             uint32 = 0x00020000
	EntryRequirePAP             uint32 = 0x00040000
	EntryRequireSPAP            uint32 = 0x00080000
	EntryCustom                 uint32 = 0x00100000
	EntryPreviewPhoneNumber     uint32 = 0x00200000
	EntrySharedPhoneNumbers     uint32 = 0x00800000
	EntryPreviewUserPw          uint32 = 0x01000000
	EntryPreviewDomain          uint32 = 0x02000000
	EntryShowDialingProgress    uint32 = 0x04000000
	EntryRequireCHAP            uint32 = 0x08000000
	EntryRequireMsCHAP          uint32 = 0x10000000
	EntryRequireMsCHAP2         uint32 = 0x20000000
	EntryRequireW95MSCHAP       uint32 = 0x40000000
	EntryCustomScript           uint32 = 0x80000000
)

// RASENTRY dwType.
const (
	EntryTypePhone     uint32 = 1
	EntryTypeVPN       uint32 = 2
	EntryTypeDirect    uint32 = 3
	EntryTypeInternet  uint32 = 4
	EntryTypeBroadband uint32 = 5
)

// RASENTRY dwfNetProtocols.
const (
	NetNetBEUI uint32 = 0x00000001
	NetIPX     uint32 = 0x00000002
	NetIP      uint32 = 0x00000004
	NetIPv6    uint32 = 0x00000008
)

// RASENTRY dwFramingProtocol.
const (
	FramingPPP  uint32 = 0x00000001
	FramingSLIP uint32 = 0x00000002
	FramingRAS  uint32 = 0x00000004
)

// RASENTRY dwVpnStrategy.
const (
	VpnDefault uint32 = iota
	VpnPptpOnly
	VpnPptpFirst
	VpnL2tpOnly
	VpnL2tpFirst
	VpnSstpOnly
	VpnSstpFirst
	VpnIkev2Only
	VpnIkev2First
)

// Entry is a decoded RASENTRY together with its alternate phone numbers.
// Fields introduced after the client's OS release are dropped on encode and
// read back as zero.
type Entry struct {
	Options               uint32
	CountryID             uint32
	CountryCode           uint32
	AreaCode              string
	PhoneNumber           string
	AlternatePhoneNumbers []string

	IPAddress      netip.Addr
	DNSAddress     netip.Addr
	DNSAddressAlt  netip.Addr
	WINSAddress    netip.Addr
	WINSAddressAlt netip.Addr

	FrameSize       uint32
	NetProtocols    uint32
	FramingProtocol uint32
	Script          string
	AutodialDll     string
	AutodialFunc    string
	DeviceType      string
	DeviceName      string
	X25PadType      string
	X25Address      string
	X25Facilities   string
	X25UserData     string
	Channels        uint32

	SubEntries               uint32
	DialMode                 uint32
	DialExtraPercent         uint32
	DialExtraSampleSeconds   uint32
	HangUpExtraPercent       uint32
	HangUpExtraSampleSeconds uint32
	IdleDisconnectSeconds    uint32

	Type           uint32
	EncryptionType uint32
	CustomAuthKey  uint32
	ID             uuid.UUID
	CustomDialDll  string
	VpnStrategy    uint32

	Options2              uint32
	Options3              uint32
	DNSSuffix             string
	TCPWindowSize         uint32
	PrerequisitePhoneBook string
	PrerequisiteEntry     string
	RedialCount           uint32
	RedialPause           uint32

	IPv6DNSAddress      netip.Addr
	IPv6DNSAddressAlt   netip.Addr
	IPv4InterfaceMetric uint32
	IPv6InterfaceMetric uint32

	IPv6Address       netip.Addr
	IPv6PrefixLength  uint32
	NetworkOutageTime uint32
}

// encodeEntry writes the fixed part of e. The caller sets dwSize and the
// trailing region.
func encodeEntry(rec layout.Record, e Entry) error {
	w := writer{rec: rec}
	rec.SetU32("dwfOptions", e.Options)
	rec.SetU32("dwCountryID", e.CountryID)
	rec.SetU32("dwCountryCode", e.CountryCode)
	w.str("szAreaCode", e.AreaCode)
	w.str("szLocalPhoneNumber", e.PhoneNumber)
	w.ipv4("ipaddr", e.IPAddress)
	w.ipv4("ipaddrDns", e.DNSAddress)
	w.ipv4("ipaddrDnsAlt", e.DNSAddressAlt)
	w.ipv4("ipaddrWins", e.WINSAddress)
	w.ipv4("ipaddrWinsAlt", e.WINSAddressAlt)
	rec.SetU32("dwFrameSize", e.FrameSize)
	rec.SetU32("dwfNetProtocols", e.NetProtocols)
	rec.SetU32("dwFramingProtocol", e.FramingProtocol)
	w.str("szScript", e.Script)
	w.str("szAutodialDll", e.AutodialDll)
	w.str("szAutodialFunc", e.AutodialFunc)
	w.str("szDeviceType", e.DeviceType)
	w.str("szDeviceName", e.DeviceName)
	w.str("szX25PadType", e.X25PadType)
	w.str("szX25Address", e.X25Address)
	w.str("szX25Facilities", e.X25Facilities)
	w.str("szX25UserData", e.X25UserData)
	rec.SetU32("dwChannels", e.Channels)

	rec.SetU32("dwSubEntries", e.SubEntries)
	rec.SetU32("dwDialMode", e.DialMode)
	rec.SetU32("dwDialExtraPercent", e.DialExtraPercent)
	rec.SetU32("dwDialExtraSampleSeconds", e.DialExtraSampleSeconds)
	rec.SetU32("dwHangUpExtraPercent", e.HangUpExtraPercent)
	rec.SetU32("dwHangUpExtraSampleSeconds", e.HangUpExtraSampleSeconds)
	rec.SetU32("dwIdleDisconnectSeconds", e.IdleDisconnectSeconds)

	rec.SetU32("dwType", e.Type)
	rec.SetU32("dwEncryptionType", e.EncryptionType)
	rec.SetU32("dwCustomAuthKey", e.CustomAuthKey)
	rec.SetGUID("guidId", e.ID)
	w.str("szCustomDialDll", e.CustomDialDll)
	rec.SetU32("dwVpnStrategy", e.VpnStrategy)

	rec.SetU32("dwfOptions2", e.Options2)
	rec.SetU32("dwfOptions3", e.Options3)
	w.str("szDnsSuffix", e.DNSSuffix)
	rec.SetU32("dwTcpWindowSize", e.TCPWindowSize)
	w.str("szPrerequisitePbk", e.PrerequisitePhoneBook)
	w.str("szPrerequisiteEntry", e.PrerequisiteEntry)
	rec.SetU32("dwRedialCount", e.RedialCount)
	rec.SetU32("dwRedialPause", e.RedialPause)

	w.ipv6("ipv6addrDns", e.IPv6DNSAddress)
	w.ipv6("ipv6addrDnsAlt", e.IPv6DNSAddressAlt)
	rec.SetU32("dwIPv4InterfaceMetric", e.IPv4InterfaceMetric)
	rec.SetU32("dwIPv6InterfaceMetric", e.IPv6InterfaceMetric)

	w.ipv6("ipv6addr", e.IPv6Address)
	rec.SetU32("dwIPv6PrefixLength", e.IPv6PrefixLength)
	rec.SetU32("dwNetworkOutageTime", e.NetworkOutageTime)
	return w.err
}

func decodeEntry(rec layout.Record) (Entry, error) {
	alt, err := trailingStrings(rec, "dwAlternateOffset")
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Options:               rec.U32("dwfOptions"),
		CountryID:             rec.U32("dwCountryID"),
		CountryCode:           rec.U32("dwCountryCode"),
		AreaCode:              rec.String("szAreaCode"),
		PhoneNumber:           rec.String("szLocalPhoneNumber"),
		AlternatePhoneNumbers: alt,

		IPAddress:      ipv4At(rec, "ipaddr"),
		DNSAddress:     ipv4At(rec, "ipaddrDns"),
		DNSAddressAlt:  ipv4At(rec, "ipaddrDnsAlt"),
		WINSAddress:    ipv4At(rec, "ipaddrWins"),
		WINSAddressAlt: ipv4At(rec, "ipaddrWinsAlt"),

		FrameSize:       rec.U32("dwFrameSize"),
		NetProtocols:    rec.U32("dwfNetProtocols"),
		FramingProtocol: rec.U32("dwFramingProtocol"),
		Script:          rec.String("szScript"),
		AutodialDll:     rec.String("szAutodialDll"),
		AutodialFunc:    rec.String("szAutodialFunc"),
		DeviceType:      rec.String("szDeviceType"),
		DeviceName:      rec.String("szDeviceName"),
		X25PadType:      rec.String("szX25PadType"),
		X25Address:      rec.String("szX25Address"),
		X25Facilities:   rec.String("szX25Facilities"),
		X25UserData:     rec.String("szX25UserData"),
		Channels:        rec.U32("dwChannels"),

		SubEntries:               rec.U32("dwSubEntries"),
		DialMode:                 rec.U32("dwDialMode"),
		DialExtraPercent:         rec.U32("dwDialExtraPercent"),
		DialExtraSampleSeconds:   rec.U32("dwDialExtraSampleSeconds"),
		HangUpExtraPercent:       rec.U32("dwHangUpExtraPercent"),
		HangUpExtraSampleSeconds: rec.U32("dwHangUpExtraSampleSeconds"),
		IdleDisconnectSeconds:    rec.U32("dwIdleDisconnectSeconds"),

		Type:           rec.U32("dwType"),
		EncryptionType: rec.U32("dwEncryptionType"),
		CustomAuthKey:  rec.U32("dwCustomAuthKey"),
		ID:             rec.GUID("guidId"),
		CustomDialDll:  rec.String("szCustomDialDll"),
		VpnStrategy:    rec.U32("dwVpnStrategy"),

		Options2:              rec.U32("dwfOptions2"),
		Options3:              rec.U32("dwfOptions3"),
		DNSSuffix:             rec.String("szDnsSuffix"),
		TCPWindowSize:         rec.U32("dwTcpWindowSize"),
		PrerequisitePhoneBook: rec.String("szPrerequisitePbk"),
		PrerequisiteEntry:     rec.String("szPrerequisiteEntry"),
		RedialCount:           rec.U32("dwRedialCount"),
		RedialPause:           rec.U32("dwRedialPause"),

		IPv6DNSAddress:      ipv6At(rec, "ipv6addrDns"),
		IPv6DNSAddressAlt:   ipv6At(rec, "ipv6addrDnsAlt"),
		IPv4InterfaceMetric: rec.U32("dwIPv4InterfaceMetric"),
		IPv6InterfaceMetric: rec.U32("dwIPv6InterfaceMetric"),

		IPv6Address:       ipv6At(rec, "ipv6addr"),
		IPv6PrefixLength:  rec.U32("dwIPv6PrefixLength"),
		NetworkOutageTime: rec.U32("dwNetworkOutageTime"),
	}, nil
}

// trailingStrings decodes the multi-string referenced by the offset field.
// rec.B must extend over the whole native buffer.
func trailingStrings(rec layout.Record, offsetField string) ([]string, error) {
	off := int(rec.U32(offsetField))
	if off == 0 {
		return nil, nil
	}
	if off < rec.L.Size || off >= len(rec.B) {
		return nil, fmt.Errorf("ras: %s.%s %d outside %d-byte buffer", rec.L.Def.Name, offsetField, off, len(rec.B))
	}
	return layout.DecodeMultiString(rec.B[off:])
}

// putTrailing copies blob after the fixed part and records its offset.
func putTrailing(rec layout.Record, offsetField string, fixed int, blob []byte) {
	if len(blob) == 0 {
		rec.SetU32(offsetField, 0)
		return
	}
	copy(rec.B[fixed:], blob)
	rec.SetU32(offsetField, uint32(fixed))
}

// encodeEntryBuffer writes e into buf, which must hold the corrected fixed
// size plus len(trailing).
func (c *Client) encodeEntryBuffer(buf *native.Buffer, e Entry, trailing []byte) error {
	rec, err := c.record(defRASENTRY, buf)
	if err != nil {
		return err
	}
	fixed := c.entrySize()
	if err := encodeEntry(rec, e); err != nil {
		return err
	}
	rec.SetSizeTo(fixed)
	putTrailing(rec, "dwAlternateOffset", fixed, trailing)
	return nil
}

// Entry returns the properties of a phone-book entry. An empty entry name
// returns the default entry properties.
func (c *Client) Entry(phoneBook, entryName string) (Entry, error) {
	const op = "Entry"
	fixed := c.entrySize()
	var e Entry
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(fixed),
		prepare: func(buf *native.Buffer) error {
			rec, err := c.record(defRASENTRY, buf)
			if err != nil {
				return err
			}
			rec.SetSizeTo(fixed)
			return nil
		},
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			return c.call("RasGetEntryProperties", func() native.ResultCode {
				return c.api.GetEntryProperties(phoneBook, entryName, buf, size)
			}, phoneBook, entryName)
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			rec, err := c.record(defRASENTRY, buf)
			if err != nil {
				return err
			}
			e, err = decodeEntry(rec)
			return err
		},
	})
	return e, err
}

// SetEntry creates or replaces a phone-book entry.
func (c *Client) SetEntry(phoneBook, entryName string, e Entry) error {
	const op = "SetEntry"
	if entryName == "" {
		return argError(op, "entryName", "empty")
	}
	trailing, err := layout.EncodeMultiString(e.AlternatePhoneNumbers)
	if err != nil {
		return argError(op, "AlternatePhoneNumbers", err.Error())
	}
	return c.withBuffer(op, c.entrySize()+len(trailing), func(buf *native.Buffer) error {
		if err := c.encodeEntryBuffer(buf, e, trailing); err != nil {
			return argError(op, "entry", err.Error())
		}
		code := c.call("RasSetEntryProperties", func() native.ResultCode {
			return c.api.SetEntryProperties(phoneBook, entryName, buf, uint32(buf.Len()))
		}, phoneBook, entryName)
		return translate(op, code)
	})
}

// ValidateEntryName checks that entryName is well formed and unused in the
// phone book. It reports ErrAlreadyExists or ErrInvalidName otherwise.
func (c *Client) ValidateEntryName(phoneBook, entryName string) error {
	const op = "ValidateEntryName"
	if entryName == "" {
		return argError(op, "entryName", "empty")
	}
	code := c.call("RasValidateEntryName", func() native.ResultCode {
		return c.api.ValidateEntryName(phoneBook, entryName)
	}, phoneBook, entryName)
	return translate(op, code)
}

// DeleteEntry removes a phone-book entry.
func (c *Client) DeleteEntry(phoneBook, entryName string) error {
	const op = "DeleteEntry"
	if entryName == "" {
		return argError(op, "entryName", "empty")
	}
	code := c.call("RasDeleteEntry", func() native.ResultCode {
		return c.api.DeleteEntry(phoneBook, entryName)
	}, phoneBook, entryName)
	return translate(op, code)
}

// RenameEntry renames a phone-book entry.
func (c *Client) RenameEntry(phoneBook, oldName, newName string) error {
	const op = "RenameEntry"
	if oldName == "" {
		return argError(op, "oldName", "empty")
	}
	if newName == "" {
		return argError(op, "newName", "empty")
	}
	code := c.call("RasRenameEntry", func() native.ResultCode {
		return c.api.RenameEntry(phoneBook, oldName, newName)
	}, phoneBook, oldName, newName)
	return translate(op, code)
}

// RASENTRYNAME dwFlags.
const (
	EntryNameUser     uint32 = 0
	EntryNameAllUsers uint32 = 1
)

// EntryName is a decoded RASENTRYNAME.
type EntryName struct {
	Name          string
	Flags         uint32
	PhoneBookPath string
}

func decodeEntryName(rec layout.Record) EntryName {
	return EntryName{
		Name:          rec.String("szEntryName"),
		Flags:         rec.U32("dwFlags"),
		PhoneBookPath: rec.String("szPhonebookPath"),
	}
}

func encodeEntryName(rec layout.Record, n EntryName) error {
	w := writer{rec: rec}
	rec.SetSize()
	w.str("szEntryName", n.Name)
	rec.SetU32("dwFlags", n.Flags)
	w.str("szPhonebookPath", n.PhoneBookPath)
	return w.err
}

// EntryNames lists the entries of a phone book. A missing phone book has
// no entries.
func (c *Client) EntryNames(phoneBook string) ([]EntryName, error) {
	const op = "EntryNames"
	l := c.layoutOf(defRASENTRYNAME)
	var out []EntryName
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(l.Size),
		prepare: c.sizedPrepare(defRASENTRYNAME),
		invoke: func(buf *native.Buffer, size, count *uint32) native.ResultCode {
			return c.call("RasEnumEntries", func() native.ResultCode {
				return c.api.EnumEntries(phoneBook, buf, size, count)
			}, phoneBook)
		},
		consume: func(buf *native.Buffer, _, count uint32) error {
			for i := 0; i < int(count); i++ {
				rec, err := layout.At(l, buf.Bytes(), i)
				if err != nil {
					return err
				}
				out = append(out, decodeEntryName(rec))
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

// SubEntry is a decoded RASSUBENTRY.
type SubEntry struct {
	Flags                 uint32
	DeviceType            string
	DeviceName            string
	PhoneNumber           string
	AlternatePhoneNumbers []string
}

func encodeSubEntry(rec layout.Record, s SubEntry) error {
	w := writer{rec: rec}
	rec.SetSize()
	rec.SetU32("dwfFlags", s.Flags)
	w.str("szDeviceType", s.DeviceType)
	w.str("szDeviceName", s.DeviceName)
	w.str("szLocalPhoneNumber", s.PhoneNumber)
	return w.err
}

func decodeSubEntry(rec layout.Record) (SubEntry, error) {
	alt, err := trailingStrings(rec, "dwAlternateOffset")
	if err != nil {
		return SubEntry{}, err
	}
	return SubEntry{
		Flags:                 rec.U32("dwfFlags"),
		DeviceType:            rec.String("szDeviceType"),
		DeviceName:            rec.String("szDeviceName"),
		PhoneNumber:           rec.String("szLocalPhoneNumber"),
		AlternatePhoneNumbers: alt,
	}, nil
}

// SubEntry returns one link definition of a multilink entry. Indexes start at 1.
func (c *Client) SubEntry(phoneBook, entryName string, index uint32) (SubEntry, error) {
	const op = "SubEntry"
	if entryName == "" {
		return SubEntry{}, argError(op, "entryName", "empty")
	}
	if index == 0 {
		return SubEntry{}, argError(op, "index", "sub-entry indexes start at 1")
	}
	var s SubEntry
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(c.layoutOf(defRASSUBENTRY).Size),
		prepare: c.sizedPrepare(defRASSUBENTRY),
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			return c.call("RasGetSubEntryProperties", func() native.ResultCode {
				return c.api.GetSubEntryProperties(phoneBook, entryName, index, buf, size)
			}, phoneBook, entryName, index)
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			rec, err := c.record(defRASSUBENTRY, buf)
			if err != nil {
				return err
			}
			s, err = decodeSubEntry(rec)
			return err
		},
	})
	return s, err
}

// SetSubEntry creates or replaces one link definition of a multilink entry.
func (c *Client) SetSubEntry(phoneBook, entryName string, index uint32, s SubEntry) error {
	const op = "SetSubEntry"
	if entryName == "" {
		return argError(op, "entryName", "empty")
	}
	if index == 0 {
		return argError(op, "index", "sub-entry indexes start at 1")
	}
	trailing, err := layout.EncodeMultiString(s.AlternatePhoneNumbers)
	if err != nil {
		return argError(op, "AlternatePhoneNumbers", err.Error())
	}
	fixed := c.layoutOf(defRASSUBENTRY).Size
	return c.withBuffer(op, fixed+len(trailing), func(buf *native.Buffer) error {
		rec, err := c.record(defRASSUBENTRY, buf)
		if err != nil {
			return err
		}
		if err := encodeSubEntry(rec, s); err != nil {
			return argError(op, "subEntry", err.Error())
		}
		putTrailing(rec, "dwAlternateOffset", fixed, trailing)
		code := c.call("RasSetSubEntryProperties", func() native.ResultCode {
			return c.api.SetSubEntryProperties(phoneBook, entryName, index, buf, uint32(buf.Len()))
		}, phoneBook, entryName, index)
		return translate(op, code)
	})
}

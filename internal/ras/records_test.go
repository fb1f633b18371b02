package ras

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

var (
	winXPSP3    = layout.Version{Major: 5, Minor: 1, Build: 2600}
	vistaRTM    = layout.Version{Major: 6, Minor: 0, Build: 6000}
	vistaSP1    = layout.Version{Major: 6, Minor: 0, Build: 6001}
	win7RTM     = layout.Version{Major: 6, Minor: 1, Build: 7600}
	win10       = layout.Version{Major: 10, Minor: 0, Build: 19045}
	allReleases = []layout.Version{layout.Win2000, winXPSP3, vistaRTM, vistaSP1, win7RTM, win7SP1, win10}
)

func TestNativeRecordSizes(t *testing.T) {
	tests := []struct {
		rt   RecordType
		v    layout.Version
		want int
	}{
		{RecordConnection, win7SP1, 1392},
		{RecordDevice, win7SP1, 296},
		{RecordStatistics, win7SP1, 60},
		{RecordCredentials, win7SP1, 1068},
		{RecordDialParams, win7SP1, 2120},
		{RecordConnStatus, win7SP1, 608},
		{RecordCountry, win7SP1, 20},
	}
	for _, tt := range tests {
		t.Run(string(tt.rt), func(t *testing.T) {
			assert.Equal(t, tt.want, requiredSize(tt.rt, tt.v, layout.Arch64, layout.DefaultEntryCorrections))
		})
	}
}

func TestRequiredSizeUnknownRecord(t *testing.T) {
	assert.Equal(t, -1, RequiredSize("RASNOPE", win7SP1))
}

func TestRequiredSizeGrowsWithRelease(t *testing.T) {
	for rt := range recordDefs {
		prev := 0
		for _, v := range allReleases {
			size := requiredSize(rt, v, layout.Arch64, layout.DefaultEntryCorrections)
			assert.GreaterOrEqual(t, size, prev, "%s at %s", rt, v)
			prev = size
		}
	}
}

func TestEntrySizeCorrections(t *testing.T) {
	base := func(v layout.Version) int { return defRASENTRY.Resolve(v, layout.Arch64).Size }
	size := func(v layout.Version) int {
		return requiredSize(RecordEntry, v, layout.Arch64, layout.DefaultEntryCorrections)
	}

	assert.Equal(t, base(vistaRTM), size(vistaRTM))
	assert.Equal(t, base(vistaSP1)+4, size(vistaSP1))
	// Second threshold: both deltas apply.
	assert.Equal(t, base(win7RTM)+8, size(win7RTM))
	assert.Equal(t, base(win10)+8, size(win10))

	// Other records never take the entry corrections.
	assert.Equal(t, defRASSUBENTRY.Resolve(win7RTM, layout.Arch64).Size,
		requiredSize(RecordSubEntry, win7RTM, layout.Arch64, layout.DefaultEntryCorrections))

	custom := layout.CorrectionTable{{Major: 6, Build: 7600, Delta: 12}}
	assert.Equal(t, base(win7RTM)+12, requiredSize(RecordEntry, win7RTM, layout.Arch64, custom))
}

// roundTrip encodes into a zeroed buffer of n bytes and decodes the result.
func roundTrip[T any](t *testing.T, def *layout.Def, v layout.Version, n int, enc func(layout.Record) error, dec func(layout.Record) (T, error)) T {
	t.Helper()
	l := def.Resolve(v, layout.HostArch)
	if n < l.Size {
		n = l.Size
	}
	rec, err := layout.NewRecord(l, make([]byte, n))
	require.NoError(t, err)
	require.NoError(t, enc(rec))
	assert.Equal(t, uint32(l.Size), rec.U32("dwSize"))
	out, err := dec(rec)
	require.NoError(t, err)
	return out
}

func noErr[T any](f func(layout.Record) T) func(layout.Record) (T, error) {
	return func(r layout.Record) (T, error) { return f(r), nil }
}

func TestConnectionRoundTrip(t *testing.T) {
	in := Connection{
		Handle:        HandleFromRaw(0xBEEF),
		EntryName:     "Office VPN",
		DeviceType:    DeviceVPN,
		DeviceName:    "WAN Miniport (IKEv2)",
		PhoneBook:     `C:\ProgramData\Microsoft\Network\Connections\Pbk\rasphone.pbk`,
		SubEntry:      1,
		EntryID:       uuid.MustParse("6b29fc40-ca47-1067-b31d-00dd010662da"),
		Flags:         ConnAllUsers | ConnGlobalCreds,
		LUID:          0x0000000100000002,
		CorrelationID: uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
	}
	enc := func(r layout.Record) error { return encodeConnection(r, in) }

	out := roundTrip(t, defRASCONN, win7SP1, 0, enc, noErr(decodeConnection))
	assert.Equal(t, in.Handle.Raw(), out.Handle.Raw())
	out.Handle, in.Handle = nil, nil
	assert.Equal(t, in, out)

	in.Handle = HandleFromRaw(0xBEEF)
	out = roundTrip(t, defRASCONN, winXPSP3, 0, enc, noErr(decodeConnection))
	assert.Equal(t, in.LUID, out.LUID)
	assert.Equal(t, in.Flags, out.Flags)
	assert.Equal(t, uuid.Nil, out.CorrelationID, "correlation id arrived with Vista")
}

func TestDeviceRoundTrip(t *testing.T) {
	in := Device{Type: DevicePPPoE, Name: "WAN Miniport (PPPOE)"}
	out := roundTrip(t, defRASDEVINFO, win7SP1, 0,
		func(r layout.Record) error { return encodeDevice(r, in) }, noErr(decodeDevice))
	assert.Equal(t, in, out)
}

func TestEntryNameRoundTrip(t *testing.T) {
	in := EntryName{Name: "Dial-up", Flags: EntryNameAllUsers, PhoneBookPath: `C:\pbk\rasphone.pbk`}
	enc := func(r layout.Record) error { return encodeEntryName(r, in) }

	assert.Equal(t, in, roundTrip(t, defRASENTRYNAME, win7SP1, 0, enc, noErr(decodeEntryName)))
}

func TestConnStatusRoundTrip(t *testing.T) {
	in := ConnectionStatus{
		State:          StateConnected,
		ErrorCode:      native.Success,
		DeviceType:     DeviceVPN,
		DeviceName:     "WAN Miniport (SSTP)",
		PhoneNumber:    "vpn.example.com",
		LocalEndpoint:  netip.MustParseAddr("192.0.2.10"),
		RemoteEndpoint: netip.MustParseAddr("2001:db8::1"),
		SubState:       1,
	}
	enc := func(r layout.Record) error { return encodeConnStatus(r, in) }

	assert.Equal(t, in, roundTrip(t, defRASCONNSTATUS, win7SP1, 0, enc, noErr(decodeConnStatus)))

	old := roundTrip(t, defRASCONNSTATUS, vistaSP1, 0, enc, noErr(decodeConnStatus))
	assert.False(t, old.LocalEndpoint.IsValid())
	assert.Zero(t, old.SubState)
	assert.Equal(t, in.PhoneNumber, old.PhoneNumber)
}

func TestStatisticsRoundTrip(t *testing.T) {
	in := Statistics{
		BytesTransmitted: 1 << 20, BytesReceived: 3 << 20,
		FramesTransmitted: 900, FramesReceived: 2100,
		CRCErrors: 1, TimeoutErrors: 2, AlignmentErrors: 3,
		HardwareOverrunErrors: 4, FramingErrors: 5, BufferOverrunErrors: 6,
		CompressionRatioIn: 40, CompressionRatioOut: 35,
		LinkSpeed:       56000,
		ConnectDuration: 95 * time.Second,
	}
	enc := func(r layout.Record) error { encodeStatistics(r, in); return nil }
	assert.Equal(t, in, roundTrip(t, defRASSTATS, win7SP1, 0, enc, noErr(decodeStatistics)))
}

func TestCredentialsRoundTrip(t *testing.T) {
	in := Credentials{Mask: CredUserName | CredPassword | CredDomain, UserName: "alice", Password: "s3cret", Domain: "CORP"}
	enc := func(r layout.Record) error { return encodeCredentials(r, in) }
	assert.Equal(t, in, roundTrip(t, defRASCREDENTIALS, win7SP1, 0, enc, noErr(decodeCredentials)))

	long := Credentials{Mask: CredDomain, Domain: "DOMAIN-NAME-TOO-LONG"}
	rec, err := layout.NewRecord(defRASCREDENTIALS.Resolve(win7SP1, layout.HostArch), make([]byte, 2048))
	require.NoError(t, err)
	assert.ErrorIs(t, encodeCredentials(rec, long), layout.ErrTooLong)
}

func TestDialParamsRoundTrip(t *testing.T) {
	in := DialParams{
		EntryName: "Office VPN", PhoneNumber: "vpn.example.com", CallbackNumber: "555-0100",
		UserName: "alice", Password: "s3cret", Domain: "CORP",
		SubEntry: 2, InterfaceIndex: 17,
	}
	var rec layout.Record
	enc := func(r layout.Record) error { rec = r; return encodeDialParams(r, in, 42) }

	assert.Equal(t, in, roundTrip(t, defRASDIALPARAMS, win7SP1, 0, enc, noErr(decodeDialParams)))
	assert.Equal(t, uint64(42), rec.Ptr("dwCallbackId"))

	old := roundTrip(t, defRASDIALPARAMS, vistaSP1, 0, enc, noErr(decodeDialParams))
	want := in
	want.InterfaceIndex = 0
	assert.Equal(t, want, old)
}

func TestDialExtensionsRoundTrip(t *testing.T) {
	c := NewClient(native.Unsupported{}, WithVersion(win7SP1))
	in := DialExtensions{
		Options:      DialDisableReconnect | DialNoUser,
		ParentWindow: 0x1234,
		EapData:      []byte{0x19, 0x00, 0x00, 0x00, 0xAA},
		SkipPPPAuth:  true,
	}
	buf := native.NewBuffer(make([]byte, c.dialExtensionsSize(in)), nil)
	require.NoError(t, c.encodeDialExtensions(buf, in))

	rec, err := c.record(defRASDIALEXTENSIONS, buf)
	require.NoError(t, err)
	dev, ok := rec.Sub("RasDevSpecificInfo")
	require.True(t, ok)
	assert.Equal(t, uint32(dev.L.Size), dev.U32("dwSize"))

	out, err := c.decodeDialExtensions(buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	vista := NewClient(native.Unsupported{}, WithVersion(vistaSP1))
	buf = native.NewBuffer(make([]byte, vista.dialExtensionsSize(in)), nil)
	require.NoError(t, vista.encodeDialExtensions(buf, in))
	out, err = vista.decodeDialExtensions(buf)
	require.NoError(t, err)
	assert.False(t, out.SkipPPPAuth, "fSkipPppAuth arrived with Windows 7")
	assert.Equal(t, in.EapData, out.EapData)
}

func fullEntry() Entry {
	return Entry{
		Options:               EntryRequireEncryptedPw | EntryModemLights,
		CountryID:             1,
		CountryCode:           1,
		AreaCode:              "206",
		PhoneNumber:           "vpn.example.com",
		AlternatePhoneNumbers: []string{"vpn2.example.com", "198.51.100.7"},
		IPAddress:             netip.MustParseAddr("10.0.0.2"),
		DNSAddress:            netip.MustParseAddr("10.0.0.53"),
		DNSAddressAlt:         netip.MustParseAddr("10.0.1.53"),
		WINSAddress:           netip.MustParseAddr("10.0.0.9"),
		WINSAddressAlt:        netip.MustParseAddr("10.0.1.9"),
		FrameSize:             1500,
		NetProtocols:          NetIP | NetIPv6,
		FramingProtocol:       FramingPPP,
		Script:                `C:\scripts\login.scp`,
		DeviceType:            DeviceVPN,
		DeviceName:            "WAN Miniport (IKEv2)",
		Channels:              1,
		SubEntries:            1,
		IdleDisconnectSeconds: 600,
		Type:                  EntryTypeVPN,
		EncryptionType:        3,
		CustomAuthKey:         26,
		ID:                    uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301"),
		VpnStrategy:           VpnIkev2First,
		Options2:              0x10,
		Options3:              0x20,
		DNSSuffix:             "corp.example.com",
		TCPWindowSize:         65535,
		RedialCount:           3,
		RedialPause:           60,
		IPv6DNSAddress:        netip.MustParseAddr("2001:db8::53"),
		IPv6DNSAddressAlt:     netip.MustParseAddr("2001:db8:1::53"),
		IPv4InterfaceMetric:   10,
		IPv6InterfaceMetric:   20,
		IPv6Address:           netip.MustParseAddr("2001:db8::2"),
		IPv6PrefixLength:      64,
		NetworkOutageTime:     1800,
	}
}

func TestEntryRoundTripAcrossReleases(t *testing.T) {
	in := fullEntry()
	trailing, err := layout.EncodeMultiString(in.AlternatePhoneNumbers)
	require.NoError(t, err)

	decode := func(v layout.Version) Entry {
		c := NewClient(native.Unsupported{}, WithVersion(v))
		buf := native.NewBuffer(make([]byte, c.entrySize()+len(trailing)), nil)
		require.NoError(t, c.encodeEntryBuffer(buf, in, trailing))
		rec, err := c.record(defRASENTRY, buf)
		require.NoError(t, err)
		assert.Equal(t, uint32(c.entrySize()), rec.U32("dwSize"))
		assert.Equal(t, uint32(c.entrySize()), rec.U32("dwAlternateOffset"))
		out, err := decodeEntry(rec)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, in, decode(win7SP1))
	assert.Equal(t, in, decode(win10))

	want := in
	want.IPv6Address, want.IPv6PrefixLength, want.NetworkOutageTime = netip.Addr{}, 0, 0
	assert.Equal(t, want, decode(vistaSP1))

	want.IPv6DNSAddress, want.IPv6DNSAddressAlt = netip.Addr{}, netip.Addr{}
	want.IPv4InterfaceMetric, want.IPv6InterfaceMetric = 0, 0
	assert.Equal(t, want, decode(winXPSP3))
}

func TestEntryRoundTripKeepsUnspecifiedAddresses(t *testing.T) {
	in := fullEntry()
	in.IPAddress, in.WINSAddressAlt = netip.IPv4Unspecified(), netip.IPv4Unspecified()
	in.IPv6Address, in.IPv6DNSAddressAlt = netip.IPv6Unspecified(), netip.IPv6Unspecified()

	trailing, err := layout.EncodeMultiString(in.AlternatePhoneNumbers)
	require.NoError(t, err)

	c := NewClient(native.Unsupported{}, WithVersion(win7SP1))
	buf := native.NewBuffer(make([]byte, c.entrySize()+len(trailing)), nil)
	require.NoError(t, c.encodeEntryBuffer(buf, in, trailing))
	rec, err := c.record(defRASENTRY, buf)
	require.NoError(t, err)
	out, err := decodeEntry(rec)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.True(t, out.IPAddress.IsValid())
	assert.True(t, out.IPv6Address.IsUnspecified())
}

func TestEntryRejectsIPv6InIPv4Field(t *testing.T) {
	c := NewClient(native.Unsupported{}, WithVersion(win7SP1))
	e := Entry{IPAddress: netip.MustParseAddr("2001:db8::1")}
	buf := native.NewBuffer(make([]byte, c.entrySize()), nil)

	err := c.encodeEntryBuffer(buf, e, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSubEntryRoundTrip(t *testing.T) {
	in := SubEntry{
		Flags:                 0,
		DeviceType:            DeviceISDN,
		DeviceName:            "ISDN Channel - Adapter 1",
		PhoneNumber:           "555-0101",
		AlternatePhoneNumbers: []string{"555-0102"},
	}
	trailing, err := layout.EncodeMultiString(in.AlternatePhoneNumbers)
	require.NoError(t, err)
	fixed := defRASSUBENTRY.Resolve(win7SP1, layout.HostArch).Size

	enc := func(r layout.Record) error {
		if err := encodeSubEntry(r, in); err != nil {
			return err
		}
		putTrailing(r, "dwAlternateOffset", fixed, trailing)
		return nil
	}
	assert.Equal(t, in, roundTrip(t, defRASSUBENTRY, win7SP1, fixed+len(trailing), enc, decodeSubEntry))
}

func TestTrailingOffsetOutsideBuffer(t *testing.T) {
	l := defRASSUBENTRY.Resolve(win7SP1, layout.HostArch)
	rec, err := layout.NewRecord(l, make([]byte, l.Size))
	require.NoError(t, err)
	rec.SetU32("dwAlternateOffset", uint32(l.Size+100))

	_, err = decodeSubEntry(rec)
	assert.Error(t, err)
}

func TestCountryRoundTrip(t *testing.T) {
	in := Country{ID: 44, NextID: 45, Code: 44, Name: "United Kingdom"}
	name, err := countryImage(in)
	require.NoError(t, err)
	l := defRASCTRYINFO.Resolve(win7SP1, layout.HostArch)

	enc := func(r layout.Record) error { encodeCountry(r, in, name); return nil }
	assert.Equal(t, in, roundTrip(t, defRASCTRYINFO, win7SP1, l.Size+len(name), enc, decodeCountry))
}

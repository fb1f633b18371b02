package ras

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
	"rasbridge/internal/ras/rastest"
)

// fillDevices writes devs as a RASDEVINFO array into b.
func (env *testEnv) fillDevices(t *testing.T, devs ...Device) func(b []byte) uint32 {
	return func(b []byte) uint32 {
		l := env.client.layoutOf(defRASDEVINFO)
		for i, d := range devs {
			rec, err := layout.At(l, b, i)
			require.NoError(t, err)
			require.NoError(t, encodeDevice(rec, d))
		}
		return uint32(len(devs))
	}
}

func TestDevicesNegotiatesOnce(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	devs := []Device{
		{Type: DeviceModem, Name: "Standard 56000 bps Modem"},
		{Type: DeviceVPN, Name: "WAN Miniport (L2TP)"},
		{Type: DevicePPPoE, Name: "WAN Miniport (PPPOE)"},
	}
	recSize := uint32(env.client.layoutOf(defRASDEVINFO).Size)

	var offered []int
	grow := rastest.GrowList([]uint32{3 * recSize}, env.fillDevices(t, devs...))
	env.api.EnumDevicesFunc = func(buf *native.Buffer, size, count *uint32) native.ResultCode {
		offered = append(offered, buf.Len())
		assert.Equal(t, recSize, env.rec(t, defRASDEVINFO, buf.Bytes()).U32("dwSize"), "dwSize of first element")
		return grow(buf, size, count)
	}

	got, err := env.client.Devices()
	require.NoError(t, err)
	assert.Equal(t, devs, got)
	assert.Equal(t, 2, env.api.Count("EnumDevices"))
	assert.Equal(t, []int{int(recSize), int(3 * recSize)}, offered)
	assert.EqualValues(t, 2, env.alloc.Allocs())
	assert.EqualValues(t, 2, env.alloc.Frees())
}

func TestNegotiationRetriesUntilLargeEnough(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	l := env.client.layoutOf(defRASCONN)
	sizes := []uint32{uint32(2 * l.Size), uint32(4 * l.Size), uint32(5 * l.Size)}

	env.api.EnumConnectionsFunc = rastest.GrowList(sizes, func(b []byte) uint32 {
		for i := 0; i < 5; i++ {
			rec, err := layout.At(l, b, i)
			require.NoError(t, err)
			require.NoError(t, encodeConnection(rec, Connection{Handle: HandleFromRaw(native.Handle(0x100 + i)), EntryName: "vpn"}))
		}
		return 5
	})

	conns, err := env.client.Connections()
	require.NoError(t, err)
	require.Len(t, conns, 5)
	for i, cn := range conns {
		assert.Equal(t, native.Handle(0x100+i), cn.Handle.Raw())
		assert.Equal(t, HandleOpen, cn.Handle.State())
	}

	n := len(sizes)
	assert.Equal(t, n+1, env.api.Count("EnumConnections"))
	assert.EqualValues(t, n+1, env.alloc.Allocs())
	assert.EqualValues(t, n+1, env.alloc.Frees())
}

func TestInsufficientBufferAlsoRetries(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	l := env.client.layoutOf(defRASENTRYNAME)
	calls := 0
	env.api.EnumEntriesFunc = func(_ string, buf *native.Buffer, size, count *uint32) native.ResultCode {
		calls++
		if calls == 1 {
			*size = uint32(2 * l.Size)
			return native.ErrorInsufficientBuffer
		}
		for i, name := range []string{"Home", "Office"} {
			rec, err := layout.At(l, buf.Bytes(), i)
			require.NoError(t, err)
			require.NoError(t, encodeEntryName(rec, EntryName{Name: name}))
		}
		*count = 2
		return native.Success
	}

	names, err := env.client.EntryNames("")
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "Office", names[1].Name)
}

func TestNotFoundEnumeratesAsEmpty(t *testing.T) {
	for _, code := range []native.ResultCode{native.ErrorFileNotFound, native.ErrorCannotFindPhonebookEntry} {
		t.Run(code.String(), func(t *testing.T) {
			env := newTestEnv(t, win7SP1)
			env.api.EnumConnectionsFunc = func(*native.Buffer, *uint32, *uint32) native.ResultCode { return code }
			env.api.EnumEntriesFunc = func(string, *native.Buffer, *uint32, *uint32) native.ResultCode { return code }

			conns, err := env.client.Connections()
			require.NoError(t, err)
			assert.Empty(t, conns)

			names, err := env.client.EntryNames(`C:\missing.pbk`)
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestLookupNotFoundIsAnError(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.GetEntryPropertiesFunc = func(string, string, *native.Buffer, *uint32) native.ResultCode {
		return native.ErrorCannotFindPhonebookEntry
	}
	_, err := env.client.Entry("", "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestNegotiationUsesReportedSizeEvenWhenSmaller(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	var offered []int
	var decoded uint32
	err := env.client.negotiate(negotiation{
		op:      "Devices",
		initial: 296,
		invoke: func(buf *native.Buffer, size, count *uint32) native.ResultCode {
			offered = append(offered, buf.Len())
			if len(offered) == 1 {
				*size = 256
				return native.ErrorBufferTooSmall
			}
			*count = 3
			return native.Success
		},
		consume: func(buf *native.Buffer, size, count uint32) error {
			assert.Equal(t, 256, buf.Len())
			decoded = count
			return nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []int{296, 256}, offered)
	assert.EqualValues(t, 3, decoded)
	assert.EqualValues(t, 2, env.alloc.Allocs())
	assert.Zero(t, env.alloc.Outstanding())
}

func TestDevicesFollowShrinkingSize(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	devs := []Device{
		{Type: DeviceModem, Name: "Standard 56000 bps Modem"},
		{Type: DeviceVPN, Name: "WAN Miniport (L2TP)"},
		{Type: DevicePPPoE, Name: "WAN Miniport (PPPOE)"},
	}
	recSize := uint32(env.client.layoutOf(defRASDEVINFO).Size)

	var offered []int
	grow := rastest.GrowList([]uint32{256, 3 * recSize}, env.fillDevices(t, devs...))
	env.api.EnumDevicesFunc = func(buf *native.Buffer, size, count *uint32) native.ResultCode {
		offered = append(offered, buf.Len())
		return grow(buf, size, count)
	}

	got, err := env.client.Devices()
	require.NoError(t, err)
	assert.Equal(t, devs, got)
	assert.Equal(t, []int{int(recSize), 256, int(3 * recSize)}, offered)
	assert.Zero(t, env.alloc.Outstanding())
}

func TestNativePanicFreesBuffers(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.EnumDevicesFunc = func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
		if *size < 1000 {
			*size = 1000
			return native.ErrorBufferTooSmall
		}
		panic("access violation")
	}

	assert.PanicsWithValue(t, "access violation", func() { _, _ = env.client.Devices() })
	assert.EqualValues(t, 2, env.alloc.Allocs())
	assert.Zero(t, env.alloc.Outstanding())
}

func TestConsumeErrorFreesBuffer(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.EnumDevicesFunc = func(_ *native.Buffer, _, count *uint32) native.ResultCode {
		*count = 50 // more records than the buffer holds
		return native.Success
	}
	_, err := env.client.Devices()
	assert.Error(t, err)
	assert.Zero(t, env.alloc.Outstanding())
}

type failingAllocator struct{}

func (failingAllocator) Alloc(int) (*native.Buffer, error) { return nil, errors.New("out of memory") }

func TestAllocationFailure(t *testing.T) {
	env := newTestEnv(t, win7SP1, WithAllocator(failingAllocator{}))
	_, err := env.client.Devices()
	assert.ErrorContains(t, err, "out of memory")
	assert.Empty(t, env.api.Calls())
}

type brokenFreeAllocator struct{}

func (brokenFreeAllocator) Alloc(n int) (*native.Buffer, error) {
	return native.NewBuffer(make([]byte, n), func() error { return errors.New("LocalFree failed") }), nil
}

func TestFreeErrorJoinsPrimaryError(t *testing.T) {
	env := newTestEnv(t, win7SP1, WithAllocator(brokenFreeAllocator{}))
	env.api.EnumDevicesFunc = func(*native.Buffer, *uint32, *uint32) native.ResultCode {
		return native.ErrorAccessDenied
	}
	_, err := env.client.Devices()
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorContains(t, err, "LocalFree failed")
}

func TestEntryAllocatesCorrectedSize(t *testing.T) {
	env := newTestEnv(t, win7RTM)
	base := env.client.layoutOf(defRASENTRY).Size
	want := base + 8

	var offered, dwSize int
	env.api.GetEntryPropertiesFunc = func(_, _ string, buf *native.Buffer, size *uint32) native.ResultCode {
		offered = buf.Len()
		dwSize = int(env.rec(t, defRASENTRY, buf.Bytes()).U32("dwSize"))
		assert.Equal(t, uint32(want), *size)
		return native.Success
	}

	_, err := env.client.Entry("", "Office VPN")
	require.NoError(t, err)
	assert.Equal(t, want, offered)
	assert.Equal(t, want, dwSize)
	assert.Equal(t, want, env.client.RequiredSize(RecordEntry))
}

func TestEntryReadsAlternatesFromGrownBuffer(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	in := fullEntry()
	trailing, err := layout.EncodeMultiString(in.AlternatePhoneNumbers)
	require.NoError(t, err)
	need := uint32(env.client.entrySize() + len(trailing))

	env.api.GetEntryPropertiesFunc = func(_, _ string, buf *native.Buffer, size *uint32) native.ResultCode {
		if *size < need {
			*size = need
			return native.ErrorBufferTooSmall
		}
		require.NoError(t, env.client.encodeEntryBuffer(buf, in, trailing))
		return native.Success
	}

	got, err := env.client.Entry("", "Office VPN")
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Equal(t, 2, env.api.Count("GetEntryProperties"))
}

func TestSetEntryWritesTrailingAlternates(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	in := fullEntry()

	var got Entry
	env.api.SetEntryPropertiesFunc = func(_, name string, buf *native.Buffer, size uint32) native.ResultCode {
		assert.Equal(t, "Office VPN", name)
		assert.Equal(t, uint32(buf.Len()), size)
		rec := env.rec(t, defRASENTRY, buf.Bytes())
		assert.Equal(t, uint32(env.client.entrySize()), rec.U32("dwSize"))
		var err error
		got, err = decodeEntry(rec)
		require.NoError(t, err)
		return native.Success
	}

	require.NoError(t, env.client.SetEntry("", "Office VPN", in))
	assert.Equal(t, in, got)
}

func TestSubEntryNegotiation(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	in := SubEntry{DeviceType: DeviceISDN, DeviceName: "ISDN 1", PhoneNumber: "555-0101", AlternatePhoneNumbers: []string{"555-0102", "555-0103"}}
	trailing, err := layout.EncodeMultiString(in.AlternatePhoneNumbers)
	require.NoError(t, err)
	fixed := env.client.layoutOf(defRASSUBENTRY).Size

	env.api.GetSubEntryPropertiesFunc = func(_, _ string, index uint32, buf *native.Buffer, size *uint32) native.ResultCode {
		assert.Equal(t, uint32(2), index)
		if int(*size) < fixed+len(trailing) {
			*size = uint32(fixed + len(trailing))
			return native.ErrorBufferTooSmall
		}
		rec := env.rec(t, defRASSUBENTRY, buf.Bytes())
		require.NoError(t, encodeSubEntry(rec, in))
		putTrailing(rec, "dwAlternateOffset", fixed, trailing)
		return native.Success
	}

	got, err := env.client.SubEntry("", "Bonded ISDN", 2)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestCountriesWalkList(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	countries := map[uint32]Country{
		1:  {ID: 1, NextID: 7, Code: 1, Name: "United States of America"},
		7:  {ID: 7, NextID: 44, Code: 7, Name: "Russia"},
		44: {ID: 44, NextID: 0, Code: 44, Name: "United Kingdom"},
	}
	env.api.GetCountryInfoFunc = func(buf *native.Buffer, size *uint32) native.ResultCode {
		rec := env.rec(t, defRASCTRYINFO, buf.Bytes())
		ct, ok := countries[rec.U32("dwCountryID")]
		if !ok {
			return native.ErrorInvalidParameter
		}
		name, err := countryImage(ct)
		require.NoError(t, err)
		if need := uint32(rec.L.Size + len(name)); *size < need {
			*size = need
			return native.ErrorBufferTooSmall
		}
		encodeCountry(rec, ct, name)
		return native.Success
	}

	got, err := env.client.Countries()
	require.NoError(t, err)
	assert.Equal(t, []Country{countries[1], countries[7], countries[44]}, got)
}

func TestCountriesDetectsLoop(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.GetCountryInfoFunc = func(buf *native.Buffer, _ *uint32) native.ResultCode {
		rec := env.rec(t, defRASCTRYINFO, buf.Bytes())
		rec.SetU32("dwNextCountryID", 1)
		return native.Success
	}
	got, err := env.client.Countries()
	assert.ErrorContains(t, err, "loops")
	assert.Nil(t, got)
}

func TestErrorStringGrowsBuffer(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	msg := strings.Repeat("The remote connection was denied because the user name and password combination you provided is not recognized. ", 3)
	enc, err := layout.EncodeUTF16(msg)
	require.NoError(t, err)

	var offered []int
	env.api.GetErrorStringFunc = func(code uint32, buf *native.Buffer) native.ResultCode {
		assert.Equal(t, uint32(native.ErrorAuthenticationFailure), code)
		offered = append(offered, buf.Len())
		if buf.Len() < len(enc)+2 {
			return native.ErrorInsufficientBuffer
		}
		copy(buf.Bytes(), enc)
		return native.Success
	}

	got, err := env.client.ErrorString(native.ErrorAuthenticationFailure)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	assert.Equal(t, []int{2 * errorStringChars, 4 * errorStringChars}, offered)
}

package ras

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
	"rasbridge/internal/ras/rastest"
)

const testPhoneBook = `C:\ProgramData\Microsoft\Network\Connections\Pbk\rasphone.pbk`

func TestCredentialsRequestsAllFields(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.GetCredentialsFunc = func(pb, entry string, buf *native.Buffer) native.ResultCode {
		assert.Equal(t, testPhoneBook, pb)
		assert.Equal(t, "Office VPN", entry)
		rec := env.rec(t, defRASCREDENTIALS, buf.Bytes())
		assert.Equal(t, uint32(1068), rec.U32("dwSize"))
		assert.Equal(t, CredUserName|CredPassword|CredDomain, rec.U32("dwMask"))

		// Only the user name is saved.
		require.NoError(t, encodeCredentials(rec, Credentials{Mask: CredUserName, UserName: "alice"}))
		return native.Success
	}

	cr, err := env.client.Credentials(testPhoneBook, "Office VPN")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Mask: CredUserName, UserName: "alice"}, cr)
}

func TestCredentialsMissingEntry(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.GetCredentialsFunc = func(string, string, *native.Buffer) native.ResultCode {
		return native.ErrorCannotFindPhonebookEntry
	}

	_, err := env.client.Credentials(testPhoneBook, "gone")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSetAndClearCredentials(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	type saved struct {
		cr     Credentials
		remove bool
	}
	var got []saved
	env.api.SetCredentialsFunc = func(_, _ string, buf *native.Buffer, remove bool) native.ResultCode {
		got = append(got, saved{decodeCredentials(env.rec(t, defRASCREDENTIALS, buf.Bytes())), remove})
		return native.Success
	}

	cr := Credentials{Mask: CredUserName | CredPassword, UserName: "alice", Password: "s3cret"}
	require.NoError(t, env.client.SetCredentials(testPhoneBook, "Office VPN", cr))
	require.NoError(t, env.client.ClearCredentials(testPhoneBook, "Office VPN", CredPassword))

	assert.Equal(t, []saved{
		{cr, false},
		{Credentials{Mask: CredPassword}, true},
	}, got)

	err := env.client.SetCredentials(testPhoneBook, "Office VPN", Credentials{UserName: "alice"})
	assert.ErrorIs(t, err, ErrInvalidArgument, "empty mask")
	err = env.client.SetCredentials(testPhoneBook, "Office VPN", Credentials{Mask: CredDomain, Domain: "DOMAIN-NAME-TOO-LONG"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 2, env.api.Count("SetCredentials"))
}

func TestDialParamsReportsSavedPassword(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	want := DialParams{EntryName: "Office VPN", UserName: "alice", Password: "s3cret", Domain: "CORP"}
	env.api.GetEntryDialParamsFunc = func(_ string, buf *native.Buffer, hasPassword *bool) native.ResultCode {
		rec := env.rec(t, defRASDIALPARAMS, buf.Bytes())
		assert.Equal(t, "Office VPN", rec.String("szEntryName"))
		require.NoError(t, encodeDialParams(rec, want, 0))
		*hasPassword = true
		return native.Success
	}

	p, hasPassword, err := env.client.DialParams(testPhoneBook, "Office VPN")
	require.NoError(t, err)
	assert.True(t, hasPassword)
	assert.Equal(t, want, p)
}

func TestSetDialParams(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	p := DialParams{EntryName: "Office VPN", UserName: "alice"}
	env.api.SetEntryDialParamsFunc = func(pb string, buf *native.Buffer, removePassword bool) native.ResultCode {
		assert.Equal(t, testPhoneBook, pb)
		assert.True(t, removePassword)
		assert.Equal(t, p, decodeDialParams(env.rec(t, defRASDIALPARAMS, buf.Bytes())))
		return native.Success
	}

	require.NoError(t, env.client.SetDialParams(testPhoneBook, p, true))
	assert.ErrorIs(t, env.client.SetDialParams(testPhoneBook, DialParams{UserName: "alice"}, false), ErrInvalidArgument)
	assert.Equal(t, 1, env.api.Count("SetEntryDialParams"))
}

func TestEntryManagement(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	entries := map[string]bool{"Office VPN": true}
	env.api.ValidateEntryNameFunc = func(_, name string) native.ResultCode {
		if entries[name] {
			return native.ErrorAlreadyExists
		}
		return native.Success
	}
	env.api.RenameEntryFunc = func(_, from, to string) native.ResultCode {
		if !entries[from] {
			return native.ErrorCannotFindPhonebookEntry
		}
		delete(entries, from)
		entries[to] = true
		return native.Success
	}
	env.api.DeleteEntryFunc = func(_, name string) native.ResultCode {
		if !entries[name] {
			return native.ErrorCannotFindPhonebookEntry
		}
		delete(entries, name)
		return native.Success
	}

	assert.ErrorIs(t, env.client.ValidateEntryName(testPhoneBook, "Office VPN"), ErrAlreadyExists)
	require.NoError(t, env.client.ValidateEntryName(testPhoneBook, "Home VPN"))
	require.NoError(t, env.client.RenameEntry(testPhoneBook, "Office VPN", "HQ VPN"))
	assert.ErrorIs(t, env.client.RenameEntry(testPhoneBook, "Office VPN", "x"), ErrEntryNotFound)
	require.NoError(t, env.client.DeleteEntry(testPhoneBook, "HQ VPN"))
	assert.ErrorIs(t, env.client.DeleteEntry(testPhoneBook, "HQ VPN"), ErrEntryNotFound)
	assert.Empty(t, entries)
}

func TestConnections(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	conns := []Connection{
		{Handle: HandleFromRaw(0x70), EntryName: "Office VPN", DeviceType: "vpn", DeviceName: "WAN Miniport (IKEv2)", LUID: 42},
		{Handle: HandleFromRaw(0x80), EntryName: "Dial-up", DeviceType: "modem", DeviceName: "Standard 56000 bps Modem", LUID: 43},
	}
	recSize := uint32(env.client.layoutOf(defRASCONN).Size)
	env.api.EnumConnectionsFunc = rastest.GrowList([]uint32{2 * recSize}, func(b []byte) uint32 {
		l := env.client.layoutOf(defRASCONN)
		for i, cn := range conns {
			rec, err := layout.At(l, b, i)
			require.NoError(t, err)
			require.NoError(t, encodeConnection(rec, cn))
		}
		return uint32(len(conns))
	})

	got, err := env.client.Connections()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Dial-up", got[1].EntryName)
	assert.Equal(t, native.Handle(0x80), got[1].Handle.Raw())
	assert.Equal(t, HandleOpen, got[1].Handle.State())
	assert.Equal(t, uint64(42), got[0].LUID)

	env.api.EnumConnectionsFunc = rastest.GrowList([]uint32{2 * recSize}, func(b []byte) uint32 {
		rec, err := layout.At(env.client.layoutOf(defRASCONN), b, 0)
		require.NoError(t, err)
		require.NoError(t, encodeConnection(rec, conns[0]))
		return 1
	})
	cn, err := env.client.ConnectionByName("Office VPN")
	require.NoError(t, err)
	assert.Equal(t, native.Handle(0x70), cn.Handle.Raw())
}

func TestConnectionByNameNotActive(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.EnumConnectionsFunc = func(_ *native.Buffer, _, count *uint32) native.ResultCode {
		*count = 0
		return native.Success
	}

	_, err := env.client.ConnectionByName("Office VPN")
	assert.ErrorIs(t, err, ErrNoConnection)
	assert.Equal(t, 1, env.api.Count("EnumConnections"))
}

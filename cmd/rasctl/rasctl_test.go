package main

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/test/bufconn"
	"gopkg.in/yaml.v3"

	"rasbridge/internal/ipc"
	"rasbridge/internal/layout"
	"rasbridge/internal/monitor"
	"rasbridge/internal/native"
	"rasbridge/internal/ras"
	"rasbridge/internal/ras/rastest"
)

func execute(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func testCLI(api *rastest.FakeAPI) *cli {
	return &cli{
		fs:     afero.NewMemMapFs(),
		newAPI: func() native.API { return api },
	}
}

func TestConnectionsEmpty(t *testing.T) {
	api := &rastest.FakeAPI{}
	out, err := execute(t, testCLI(api), "connections")
	require.NoError(t, err)
	assert.Contains(t, out, "ENTRY")
	assert.Contains(t, out, "0 active")
	assert.Equal(t, 1, api.Count("EnumConnections"))
}

func TestConnectionsYAML(t *testing.T) {
	out, err := execute(t, testCLI(&rastest.FakeAPI{}), "connections", "-o", "yaml")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []any{}, got["connections"])
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, testCLI(&rastest.FakeAPI{}), "devices", "-o", "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, testCLI(&rastest.FakeAPI{}), "devices", "--config", "/nope.yaml")
	assert.ErrorContains(t, err, "not found")
}

func TestConfigSuppliesPhoneBook(t *testing.T) {
	api := &rastest.FakeAPI{}
	var gotBook string
	api.ValidateEntryNameFunc = func(phoneBook, _ string) native.ResultCode {
		gotBook = phoneBook
		return native.Success
	}
	c := testCLI(api)
	require.NoError(t, afero.WriteFile(c.fs, "/etc/rasmon.yaml", []byte("version: 2\nras:\n  phonebook: 'C:\\pbk\\office.pbk'\n"), 0o644))

	out, err := execute(t, c, "entry", "validate", "Branch", "--config", "/etc/rasmon.yaml")
	require.NoError(t, err)
	assert.Equal(t, `C:\pbk\office.pbk`, gotBook)
	assert.Contains(t, out, `"Branch" is available.`)

	_, err = execute(t, c, "entry", "validate", "Branch", "--config", "/etc/rasmon.yaml", "--phonebook", `D:\other.pbk`)
	require.NoError(t, err)
	assert.Equal(t, `D:\other.pbk`, gotBook)
}

func TestStatusOfInactiveEntry(t *testing.T) {
	_, err := execute(t, testCLI(&rastest.FakeAPI{}), "status", "Office VPN")
	assert.ErrorIs(t, err, ras.ErrNoConnection)
}

func TestEntryManagementCommands(t *testing.T) {
	api := &rastest.FakeAPI{}
	var renamed [2]string
	api.RenameEntryFunc = func(_, oldName, newName string) native.ResultCode {
		renamed = [2]string{oldName, newName}
		return native.Success
	}

	out, err := execute(t, testCLI(api), "entry", "rename", "Old", "New")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"Old", "New"}, renamed)
	assert.Contains(t, out, `Renamed "Old" to "New".`)

	_, err = execute(t, testCLI(api), "entry", "delete", "New")
	require.NoError(t, err)
	assert.Equal(t, 1, api.Count("DeleteEntry"))

	_, err = execute(t, testCLI(api), "entry", "rename", "Old")
	assert.Error(t, err)
}

func TestCredentialsClear(t *testing.T) {
	api := &rastest.FakeAPI{}
	var cleared bool
	api.SetCredentialsFunc = func(_, _ string, _ *native.Buffer, clear bool) native.ResultCode {
		cleared = clear
		return native.Success
	}
	out, err := execute(t, testCLI(api), "credentials", "Office VPN", "--clear")
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Contains(t, out, "cleared")
}

func TestErrorCommand(t *testing.T) {
	api := &rastest.FakeAPI{}
	api.GetErrorStringFunc = func(code uint32, buf *native.Buffer) native.ResultCode {
		msg, err := layout.EncodeUTF16("The remote computer did not respond.")
		require.NoError(t, err)
		copy(buf.Bytes(), append(msg, 0, 0))
		return native.Success
	}

	out, err := execute(t, testCLI(api), "error", "0x2f6")
	require.NoError(t, err)
	assert.Equal(t, "758: The remote computer did not respond.\n", out)

	_, err = execute(t, testCLI(api), "error", "bogus")
	assert.ErrorContains(t, err, "invalid error code")
}

func TestCountriesRejectsBadID(t *testing.T) {
	_, err := execute(t, testCLI(&rastest.FakeAPI{}), "countries", "us")
	assert.ErrorContains(t, err, "invalid country id")
}

func TestParseProtocol(t *testing.T) {
	p, err := parseProtocol("ipv6")
	require.NoError(t, err)
	assert.Equal(t, ras.ProtocolIPv6, p)

	p, err = parseProtocol("0x8021")
	require.NoError(t, err)
	assert.Equal(t, ras.ProtocolIP, p)

	_, err = parseProtocol("appletalk")
	assert.Error(t, err)
}

func TestDialParamsMerge(t *testing.T) {
	c := testCLI(&rastest.FakeAPI{})
	c.opts.Output = formatTable
	require.NoError(t, c.setup())
	p, err := c.dialParams("Office VPN", dialOptions{User: "alice", Domain: "CORP", Number: "vpn.example.com"})
	require.NoError(t, err)
	assert.Equal(t, ras.DialParams{EntryName: "Office VPN", UserName: "alice", Domain: "CORP", PhoneNumber: "vpn.example.com"}, p)
}

type staticSnapshot monitor.Snapshot

func (s staticSnapshot) Latest() monitor.Snapshot { return monitor.Snapshot(s) }

func TestRemoteList(t *testing.T) {
	ln := bufconn.Listen(1 << 20)
	snap := staticSnapshot{
		Timestamp: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		Connections: []monitor.ConnectionStats{{
			Connection: ras.Connection{Handle: ras.HandleFromRaw(0x70), EntryName: "Office VPN", DeviceName: "WAN Miniport (SSTP)"},
			HasStats:   true,
			SpeedTx:    2048,
			SpeedRx:    1000,
		}},
	}
	srv := ipc.NewServer(ipc.NewHandler(ipc.HandlerConfig{Monitor: snap}), nil)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(srv.Stop)

	c := testCLI(&rastest.FakeAPI{})
	var gotPipe string
	c.dialRemote = func(_ context.Context, pipe string, _ time.Duration) (*ipc.Client, error) {
		gotPipe = pipe
		return ipc.DialWith(pipe, func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		})
	}

	out, err := execute(t, c, "remote", "list")
	require.NoError(t, err)
	assert.Equal(t, `\\.\pipe\rasbridge`, gotPipe)
	assert.Contains(t, out, "Office VPN")
	assert.Contains(t, out, "2.048kB/s")
	assert.Contains(t, out, "1 active")

	_, err = execute(t, c, "remote", "stats", "Dial-up", "--pipe", `\\.\pipe\other`)
	assert.ErrorContains(t, err, "rasmon:")
	assert.Equal(t, `\\.\pipe\other`, gotPipe)
}

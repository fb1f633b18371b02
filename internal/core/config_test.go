package core

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"rasbridge/internal/layout"
)

const testConfigPath = `/etc/rasbridge/config.yaml`

func TestLoadCreatesDefaultConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	cm := NewConfigManager(fs, testConfigPath, nil)

	require.NoError(t, cm.Load())
	cfg := cm.Get()
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, DefaultHangUpPoll, cfg.HangUp.PollInterval.Std())
	assert.True(t, cfg.HangUp.CloseAllEnabled())
	assert.Equal(t, DefaultMonitorPoll, cfg.Monitor.PollInterval.Std())
	assert.Equal(t, DefaultPipe, cfg.IPC.Pipe)

	data, err := afero.ReadFile(fs, testConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_interval: 50ms")
}

func TestLoadParsesSections(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(`
version: 2
logging:
  level: debug
  components:
    native: warn
ras:
  phonebook: 'C:\pbk\office.pbk'
  trace_native_calls: true
  track_allocations: true
  os_version: {major: 6, minor: 0, build: 6002}
  size_corrections:
    - {major: 6, build: 6001, delta: 4}
hangup:
  poll_interval: 25ms
  close_all: false
monitor:
  poll_interval: 5s
  notify: true
  statistics: true
ipc:
  pipe: '\\.\pipe\rasbridge-test'
  idle_exit: 1m
`), 0o644))

	bus := NewEventBus()
	reloaded := 0
	bus.Subscribe(EventConfigReloaded, func(Event) { reloaded++ })

	cm := NewConfigManager(fs, testConfigPath, bus)
	require.NoError(t, cm.Load())
	cfg := cm.Get()

	assert.Equal(t, 1, reloaded)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "warn", cfg.Logging.Components["native"])
	assert.Equal(t, `C:\pbk\office.pbk`, cfg.RAS.PhoneBook)
	assert.True(t, cfg.RAS.TraceNativeCalls)
	assert.True(t, cfg.RAS.TrackAllocations)
	assert.Equal(t, &layout.Version{Major: 6, Minor: 0, Build: 6002}, cfg.RAS.OSVersion)
	assert.Equal(t, layout.CorrectionTable{{Major: 6, Build: 6001, Delta: 4}}, cfg.RAS.SizeCorrections)
	assert.Equal(t, 25*time.Millisecond, cfg.HangUp.PollInterval.Std())
	assert.False(t, cfg.HangUp.CloseAllEnabled())
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval.Std())
	assert.True(t, cfg.Monitor.Notify)
	assert.True(t, cfg.Monitor.Statistics)
	assert.Equal(t, `\\.\pipe\rasbridge-test`, cfg.IPC.Pipe)
	assert.Equal(t, time.Minute, cfg.IPC.IdleExit.Std())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"bad duration":        "version: 2\nmonitor:\n  poll_interval: soon\n",
		"negative correction": "version: 2\nras:\n  size_corrections:\n    - {major: 6, build: 7600, delta: -4}\n",
		"negative hangup":     "version: 2\nhangup:\n  poll_interval: -1s\n",
		"negative idle exit":  "version: 2\nipc:\n  idle_exit: -5s\n",
		"not yaml":            "version: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(body), 0o644))
			assert.Error(t, NewConfigManager(fs, testConfigPath, nil).Load())
		})
	}
}

func TestLoadMigratesLegacyConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(`
ras:
  trace: true
hangup:
  poll_ms: 100
monitor:
  interval_ms: 3000
`), 0o644))

	cm := NewConfigManager(fs, testConfigPath, nil)
	require.NoError(t, cm.Load())
	cfg := cm.Get()
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.True(t, cfg.RAS.TraceNativeCalls)
	assert.Equal(t, 100*time.Millisecond, cfg.HangUp.PollInterval.Std())
	assert.Equal(t, 3*time.Second, cfg.Monitor.PollInterval.Std())

	data, err := afero.ReadFile(fs, testConfigPath)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, CurrentConfigVersion, saved["version"])
	assert.NotContains(t, saved["ras"], "trace")
}

func TestMigrateConfig(t *testing.T) {
	raw := map[string]any{
		"version": 1,
		"hangup":  map[string]any{"poll_ms": 250},
	}
	version, migrated, err := MigrateConfig(raw)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, 2, version)
	assert.Equal(t, map[string]any{"poll_interval": "250ms"}, raw["hangup"])

	_, migrated, err = MigrateConfig(raw)
	require.NoError(t, err)
	assert.False(t, migrated)

	_, _, err = MigrateConfig(map[string]any{"version": 1, "monitor": map[string]any{"interval_ms": "fast"}})
	assert.Error(t, err)
}

func TestSetValidatesAndPublishes(t *testing.T) {
	bus := NewEventBus()
	var got []EventType
	bus.Subscribe(EventConfigReloaded, func(e Event) { got = append(got, e.Type) })
	cm := NewConfigManager(afero.NewMemMapFs(), testConfigPath, bus)

	cfg := defaultConfig()
	cfg.Monitor.Notify = true
	require.NoError(t, cm.Set(cfg))
	assert.True(t, cm.Get().Monitor.Notify)

	cfg.RAS.SizeCorrections = layout.CorrectionTable{{Major: 6, Build: 7600, Delta: -1}}
	assert.Error(t, cm.Set(cfg))
	assert.Len(t, got, 1)
}

func TestDurationYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration(1500 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, "d: 1.5s\n", string(out))
}

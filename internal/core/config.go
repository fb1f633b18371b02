package core

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"rasbridge/internal/layout"
)

// Duration is a time.Duration written as a string such as "2s" in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// RASConfig configures the rasapi32 client.
type RASConfig struct {
	// PhoneBook is the default phone-book path. Empty means the system default.
	PhoneBook        string `yaml:"phonebook,omitempty"`
	TraceNativeCalls bool   `yaml:"trace_native_calls,omitempty"`
	TrackAllocations bool   `yaml:"track_allocations,omitempty"`
	// OSVersion overrides release detection, e.g. to simulate an older build.
	OSVersion *layout.Version `yaml:"os_version,omitempty"`
	// SizeCorrections replaces the built-in RASENTRY size corrections.
	SizeCorrections layout.CorrectionTable `yaml:"size_corrections,omitempty"`
}

// HangUpConfig configures connection termination.
type HangUpConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	CloseAll     *bool    `yaml:"close_all,omitempty"`
}

// CloseAllEnabled returns CloseAll, defaulting to true.
func (h HangUpConfig) CloseAllEnabled() bool {
	return h.CloseAll == nil || *h.CloseAll
}

// MonitorConfig configures the connection monitor.
type MonitorConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	Notify       bool     `yaml:"notify,omitempty"`
	Statistics   bool     `yaml:"statistics,omitempty"`
}

// IPCConfig configures the rasmon control endpoint.
type IPCConfig struct {
	Pipe string `yaml:"pipe,omitempty"`
	// IdleExit stops a console-mode rasmon after this long without an RPC.
	// Zero keeps it running.
	IdleExit Duration `yaml:"idle_exit,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Logging LogConfig     `yaml:"logging,omitempty"`
	RAS     RASConfig     `yaml:"ras,omitempty"`
	HangUp  HangUpConfig  `yaml:"hangup"`
	Monitor MonitorConfig `yaml:"monitor"`
	IPC     IPCConfig     `yaml:"ipc,omitempty"`
}

// Defaults.
const (
	DefaultHangUpPoll  = 50 * time.Millisecond
	DefaultMonitorPoll = 2 * time.Second
	DefaultPipe        = `\\.\pipe\rasbridge`
)

// defaultConfig returns the configuration written when none exists.
func defaultConfig() Config {
	cfg := Config{Version: CurrentConfigVersion}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HangUp.PollInterval == 0 {
		c.HangUp.PollInterval = Duration(DefaultHangUpPoll)
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = Duration(DefaultMonitorPoll)
	}
	if c.IPC.Pipe == "" {
		c.IPC.Pipe = DefaultPipe
	}
}

// Validate checks values that would break the client or the monitor.
func (c Config) Validate() error {
	if c.HangUp.PollInterval < 0 {
		return fmt.Errorf("hangup.poll_interval: negative duration %s", c.HangUp.PollInterval)
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval: must be positive, got %s", c.Monitor.PollInterval)
	}
	if c.IPC.IdleExit < 0 {
		return fmt.Errorf("ipc.idle_exit: negative duration %s", c.IPC.IdleExit)
	}
	if err := c.RAS.SizeCorrections.Validate(); err != nil {
		return fmt.Errorf("ras.size_corrections: %w", err)
	}
	return nil
}

// ConfigManager handles loading, saving, and hot-reloading configuration.
type ConfigManager struct {
	mu       sync.RWMutex
	config   Config
	fs       afero.Fs
	filePath string
	bus      *EventBus
}

// NewConfigManager creates a config manager that reads filePath from fsys.
func NewConfigManager(fsys afero.Fs, filePath string, bus *EventBus) *ConfigManager {
	return &ConfigManager{
		fs:       fsys,
		filePath: filePath,
		bus:      bus,
	}
}

// Path returns the config file path.
func (cm *ConfigManager) Path() string { return cm.filePath }

// Load reads and parses the configuration.
// If the config file does not exist, it creates one with default values.
// Older schema versions are migrated and written back.
func (cm *ConfigManager) Load() error {
	data, err := afero.ReadFile(cm.fs, cm.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			Log.Infof("Core", "Config %s not found, creating default config", cm.filePath)
			cm.mu.Lock()
			cm.config = defaultConfig()
			cm.mu.Unlock()
			if saveErr := cm.Save(); saveErr != nil {
				return fmt.Errorf("[Core] failed to create default config: %w", saveErr)
			}
			return nil
		}
		return fmt.Errorf("[Core] failed to read config %s: %w", cm.filePath, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("[Core] failed to parse config: %w", err)
	}
	version, migrated, err := MigrateConfig(raw)
	if err != nil {
		return fmt.Errorf("[Core] failed to migrate config: %w", err)
	}
	if migrated {
		Log.Infof("Core", "Config %s migrated to version %d", cm.filePath, version)
		if data, err = yaml.Marshal(raw); err != nil {
			return fmt.Errorf("[Core] failed to re-encode migrated config: %w", err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("[Core] failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("[Core] invalid config %s: %w", cm.filePath, err)
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()

	if migrated {
		if err := cm.Save(); err != nil {
			Log.Warnf("Core", "Failed to save migrated config: %v", err)
		}
	}

	if cm.bus != nil {
		cm.bus.Publish(Event{Type: EventConfigReloaded})
	}

	return nil
}

// Save writes the current configuration.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	data, err := yaml.Marshal(&cm.config)
	cm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("[Core] failed to marshal config: %w", err)
	}

	if err := cm.fs.MkdirAll(filepath.Dir(cm.filePath), 0o755); err != nil {
		return fmt.Errorf("[Core] failed to create config dir: %w", err)
	}
	if err := afero.WriteFile(cm.fs, cm.filePath, data, 0o644); err != nil {
		return fmt.Errorf("[Core] failed to write config %s: %w", cm.filePath, err)
	}

	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Set replaces the configuration after validating it.
// Publishes EventConfigReloaded.
func (cm *ConfigManager) Set(cfg Config) error {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()

	if cm.bus != nil {
		cm.bus.Publish(Event{Type: EventConfigReloaded})
	}
	return nil
}

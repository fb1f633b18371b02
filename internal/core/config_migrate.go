package core

import (
	"fmt"
	"time"
)

// CurrentConfigVersion is the latest config schema version.
const CurrentConfigVersion = 2

// configMigration defines a single config migration step.
type configMigration struct {
	FromVersion int
	Migrate     func(raw map[string]any) error
}

// configMigrations is the ordered list of all migrations.
// Each migration transforms raw YAML map from FromVersion to FromVersion+1.
var configMigrations = []configMigration{
	{FromVersion: 0, Migrate: migrateV0toV1},
	{FromVersion: 1, Migrate: migrateV1toV2},
}

// MigrateConfig applies all pending migrations to a raw YAML config map.
// Returns the final version number and whether any migration was applied.
func MigrateConfig(raw map[string]any) (version int, migrated bool, err error) {
	// Extract current version (0 if missing: pre-versioned config).
	switch v := raw["version"].(type) {
	case int:
		version = v
	case float64:
		version = int(v)
	default:
		version = 0
	}

	startVersion := version
	for _, m := range configMigrations {
		if m.FromVersion == version {
			if err := m.Migrate(raw); err != nil {
				return version, version != startVersion,
					fmt.Errorf("migration v%d→v%d failed: %w", m.FromVersion, m.FromVersion+1, err)
			}
			version++
			raw["version"] = version
		}
	}
	return version, version != startVersion, nil
}

func section(raw map[string]any, name string) (map[string]any, bool) {
	s, ok := raw[name].(map[string]any)
	return s, ok
}

// migrateV0toV1 renames ras.trace → ras.trace_native_calls.
func migrateV0toV1(raw map[string]any) error {
	r, ok := section(raw, "ras")
	if !ok {
		return nil
	}
	if v, ok := r["trace"]; ok {
		if _, exists := r["trace_native_calls"]; !exists {
			r["trace_native_calls"] = v
		}
		delete(r, "trace")
	}
	return nil
}

// migrateV1toV2 converts millisecond integers (hangup.poll_ms,
// monitor.interval_ms) to duration strings.
func migrateV1toV2(raw map[string]any) error {
	convert := func(sec, from, to string) error {
		s, ok := section(raw, sec)
		if !ok {
			return nil
		}
		v, ok := s[from]
		if !ok {
			return nil
		}
		delete(s, from)
		var ms int
		switch n := v.(type) {
		case int:
			ms = n
		case float64:
			ms = int(n)
		default:
			return fmt.Errorf("%s.%s: expected milliseconds, got %T", sec, from, v)
		}
		if _, exists := s[to]; !exists {
			s[to] = (time.Duration(ms) * time.Millisecond).String()
		}
		return nil
	}
	if err := convert("hangup", "poll_ms", "poll_interval"); err != nil {
		return err
	}
	return convert("monitor", "interval_ms", "poll_interval")
}

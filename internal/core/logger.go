package core

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// LogConfig holds logging configuration from YAML.
type LogConfig struct {
	Level      string            `yaml:"level,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
}

// Logger provides per-component log level filtering on top of a zap core.
// Each component tag is a named child of the base logger.
type Logger struct {
	mu          sync.RWMutex
	globalLevel LogLevel
	components  map[string]LogLevel // lowercase component name → level

	base  *zap.Logger
	named map[string]*zap.SugaredLogger
}

// ParseLevel converts a string level name to LogLevel.
// Returns LevelInfo for unrecognized values.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (lvl LogLevel) enables(z zapcore.Level) bool {
	switch {
	case lvl == LevelOff:
		return false
	case z >= zapcore.ErrorLevel:
		return true
	case z == zapcore.WarnLevel:
		return lvl <= LevelWarn
	case z == zapcore.InfoLevel:
		return lvl <= LevelInfo
	default:
		return lvl <= LevelDebug
	}
}

// consoleCore writes human-readable lines to stderr at every level; the
// Logger filters per component.
func consoleCore() zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
}

// NewLogger creates a Logger from config writing to stderr.
func NewLogger(cfg LogConfig) *Logger {
	return NewLoggerWithCore(cfg, consoleCore())
}

// NewLoggerWithCore creates a Logger from config writing to core.
func NewLoggerWithCore(cfg LogConfig, core zapcore.Core) *Logger {
	l := &Logger{base: zap.New(core)}
	l.SetConfig(cfg)
	return l
}

// SetConfig replaces the global and per-component levels.
func (l *Logger) SetConfig(cfg LogConfig) {
	components := make(map[string]LogLevel, len(cfg.Components))
	for name, level := range cfg.Components {
		components[strings.ToLower(name)] = ParseLevel(level)
	}
	l.mu.Lock()
	l.globalLevel = ParseLevel(cfg.Level)
	l.components = components
	l.mu.Unlock()
}

// levelFor returns the effective log level for a component tag.
func (l *Logger) levelFor(tag string) LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if lvl, ok := l.components[strings.ToLower(tag)]; ok {
		return lvl
	}
	return l.globalLevel
}

// Enabled reports whether tag logs at level.
func (l *Logger) Enabled(tag string, level LogLevel) bool {
	return level != LevelOff && l.levelFor(tag) <= level
}

// Named returns a structured logger for a component. Its level follows the
// component's configured level, including later SetConfig calls.
func (l *Logger) Named(tag string) *zap.Logger {
	return l.base.Named(tag).WithOptions(zap.IncreaseLevel(zap.LevelEnablerFunc(func(z zapcore.Level) bool {
		return l.levelFor(tag).enables(z)
	})))
}

func (l *Logger) sugar(tag string) *zap.SugaredLogger {
	l.mu.RLock()
	s, ok := l.named[tag]
	l.mu.RUnlock()
	if ok {
		return s
	}
	s = l.base.Named(tag).WithOptions(zap.AddCallerSkip(1)).Sugar()
	l.mu.Lock()
	if l.named == nil {
		l.named = make(map[string]*zap.SugaredLogger)
	}
	l.named[tag] = s
	l.mu.Unlock()
	return s
}

// Debugf logs at debug level.
func (l *Logger) Debugf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelDebug {
		l.sugar(tag).Debugf(format, args...)
	}
}

// Infof logs at info level.
func (l *Logger) Infof(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelInfo {
		l.sugar(tag).Infof(format, args...)
	}
}

// Warnf logs at warn level.
func (l *Logger) Warnf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelWarn {
		l.sugar(tag).Warnf(format, args...)
	}
}

// Errorf logs at error level.
func (l *Logger) Errorf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelError {
		l.sugar(tag).Errorf(format, args...)
	}
}

// Fatalf always logs and calls os.Exit(1).
func (l *Logger) Fatalf(tag, format string, args ...any) {
	l.sugar(tag).Fatalf(format, args...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Log is the global logger instance. Initialized with default (info level).
var Log = NewLogger(LogConfig{})

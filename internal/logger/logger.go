// Package logger is a small leveled logger. The TUI owns the terminal, so
// output normally goes to a log file; tests use LevelOff.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level controls verbosity.
type Level int

const (
	// LevelOff discards everything.
	LevelOff Level = iota
	// LevelNormal prints info, warn and error.
	LevelNormal
	// LevelVerbose adds debug output.
	LevelVerbose
)

// ParseLevel maps "off", "normal" and "verbose" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff, nil
	case "", "normal", "info":
		return LevelNormal, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	}
	return LevelNormal, fmt.Errorf("unknown log level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelVerbose:
		return "verbose"
	default:
		return "normal"
	}
}

// Logger writes prefixed lines per level. Safe for concurrent use.
type Logger struct {
	mu    sync.RWMutex
	level Level
	dbg   *log.Logger
	inf   *log.Logger
	wrn   *log.Logger
	errl  *log.Logger
}

// New returns a logger writing to out, or os.Stderr when out is nil.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		level: level,
		dbg:   log.New(out, "[DBG] ", flags),
		inf:   log.New(out, "[INF] ", flags),
		wrn:   log.New(out, "[WRN] ", flags),
		errl:  log.New(out, "[ERR] ", flags),
	}
}

// Open creates (or appends to) the log file at path and returns a logger
// writing there along with the file to close on shutdown.
func Open(level Level, path string) (*Logger, io.Closer, error) {
	if level == LevelOff || path == "" {
		return New(LevelOff, io.Discard), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(level, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	return New(LevelOff, io.Discard)
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current level.
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) output(min Level, dst *log.Logger, format string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level >= min {
		dst.Output(3, fmt.Sprintf(format, args...))
	}
}

// Debug logs only in verbose mode.
func (l *Logger) Debug(format string, args ...any) { l.output(LevelVerbose, l.dbg, format, args) }

// Info logs at normal level.
func (l *Logger) Info(format string, args ...any) { l.output(LevelNormal, l.inf, format, args) }

// Warn logs at normal level.
func (l *Logger) Warn(format string, args ...any) { l.output(LevelNormal, l.wrn, format, args) }

// Error logs at normal level.
func (l *Logger) Error(format string, args ...any) { l.output(LevelNormal, l.errl, format, args) }

package voxel

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Logger is the leveled printf logger renderer components write to.
// Debugf is dropped unless DebugEnabled.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes debug and info lines to stdout, warnings and errors
// to stderr, each as "[prefix] LEVEL: message". Safe for concurrent use.
type DefaultLogger struct {
	debug  atomic.Bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) emit(dst *log.Logger, level, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		dst.Printf("%s: %s", level, msg)
		return
	}
	dst.Printf("[%s] %s: %s", l.prefix, level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.emit(l.out, "DEBUG", format, args)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any)  { l.emit(l.out, "INFO", format, args) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.emit(l.err, "WARN", format, args) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.emit(l.err, "ERROR", format, args) }

// Discard drops everything.
var Discard Logger = discard{}

type discard struct{}

func (discard) DebugEnabled() bool    { return false }
func (discard) SetDebug(bool)         {}
func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

// OrNop returns l, or Discard when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}

package app

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger tags each line with a level and routes warnings and errors
// to the error stream. The debug gate is an atomic so render workers can
// log without contending on a lock.
type DefaultLogger struct {
	debug atomic.Bool
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return newLoggerTo(os.Stdout, os.Stderr, prefix, debug)
}

func newLoggerTo(out, err io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	if prefix != "" {
		prefix = "[" + prefix + "] "
	}
	l := &DefaultLogger{
		out: log.New(out, prefix, flags),
		err: log.New(err, prefix, flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.debug.Load()
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.debug.Load() {
		return
	}
	l.out.Printf("DEBUG: "+format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Printf("INFO: "+format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Printf("WARN: "+format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Printf("ERROR: "+format, args...)
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

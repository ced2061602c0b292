// Package diag is the thread-tagged diagnostic logger.
//
// Every line carries a microsecond timestamp and the name of the calling
// thread and is written to the output in a single call, so lines from
// concurrent threads never interleave. Fatal reports the error and ends the
// process with status 1.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes diagnostic lines. Safe for concurrent use.
type Logger struct {
	zl    *zap.Logger
	namer atomic.Pointer[func() string]
	exit  func(int)
	level zap.AtomicLevel
}

// Option configures a Logger.
type Option func(*Logger)

// WithThreadName sets the function that names the calling thread.
func WithThreadName(fn func() string) Option {
	return func(l *Logger) {
		l.namer.Store(&fn)
	}
}

// WithDebug enables debug lines.
func WithDebug(on bool) Option {
	return func(l *Logger) {
		l.SetDebug(on)
	}
}

// WithExit replaces os.Exit on the fatal path.
func WithExit(fn func(code int)) Option {
	return func(l *Logger) {
		l.exit = fn
	}
}

// New creates a logger writing to w. A nil w means os.Stderr.
func New(w io.Writer, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}

	l := &Logger{
		exit:  os.Exit,
		level: zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
	for _, opt := range opts {
		opt(l)
	}

	core := zapcore.NewCore(newLineEncoder(), zapcore.Lock(zapcore.AddSync(w)), l.level)
	l.zl = zap.New(core, zap.WithFatalHook(exitHook{l}))
	return l
}

// Nop returns a logger that discards lines. Fatal still exits.
func Nop() *Logger {
	return New(io.Discard)
}

// SetThreadName replaces the thread namer.
func (l *Logger) SetThreadName(fn func() string) {
	l.namer.Store(&fn)
}

// SetDebug toggles debug lines.
func (l *Logger) SetDebug(on bool) {
	if on {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

// Debug reports whether debug lines are enabled.
func (l *Logger) Debug() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

// Logf emits one line.
func (l *Logger) Logf(format string, args ...any) {
	l.zl.Info(fmt.Sprintf(format, args...), zap.String(threadKey, l.threadName()))
}

// Debugf emits one line when debug is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.Debug() {
		return
	}
	l.zl.Debug(fmt.Sprintf(format, args...), zap.String(threadKey, l.threadName()))
}

// Fatal reports err and terminates the process.
func (l *Logger) Fatal(err error) {
	l.zl.Fatal(err.Error())
}

// Fatalf formats a message, reports it and terminates the process.
func (l *Logger) Fatalf(format string, args ...any) {
	l.zl.Fatal(fmt.Sprintf(format, args...))
}

// Zap exposes the underlying logger for libraries that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

func (l *Logger) threadName() string {
	if fn := l.namer.Load(); fn != nil && *fn != nil {
		return (*fn)()
	}
	return ""
}

// exitHook runs after the fatal line has been written and synced.
type exitHook struct {
	l *Logger
}

func (h exitHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {
	h.l.exit(1)
}

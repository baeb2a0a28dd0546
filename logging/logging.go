// Package logging wraps zap with the Sublogger pattern used across the
// engine: every component gets a named child logger instead of passing
// raw *zap.Logger around and prefixing messages by hand.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named zap logger. The zero value is not usable; construct one
// with New or NewTestLogger.
type Logger struct {
	name string
	z    *zap.SugaredLogger
}

// New builds a production logger writing structured, leveled output.
func New(name string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{name: name, z: z.Sugar().Named(name)}, nil
}

// NewTestLogger builds a development-mode logger that writes to the test's
// own output via t.Log, following the teacher's test-logger convention.
func NewTestLogger(t *testing.T) *Logger {
	t.Helper()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(&testWriter{t}),
		zapcore.DebugLevel,
	)
	return &Logger{name: t.Name(), z: zap.New(core).Sugar().Named(t.Name())}
}

type testWriter struct{ t *testing.T }

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// Sublogger returns a child logger named "parent.child".
func (l *Logger) Sublogger(name string) *Logger {
	return &Logger{name: l.name + "." + name, z: l.z.Named(name)}
}

func (l *Logger) Debugf(template string, args ...interface{}) { l.z.Debugf(template, args...) }
func (l *Logger) Infof(template string, args ...interface{})  { l.z.Infof(template, args...) }
func (l *Logger) Warnf(template string, args ...interface{})  { l.z.Warnf(template, args...) }
func (l *Logger) Errorf(template string, args ...interface{}) { l.z.Errorf(template, args...) }

func (l *Logger) Debugw(msg string, kv ...interface{}) { l.z.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...interface{})  { l.z.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.z.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.z.Errorw(msg, kv...) }

// Name returns the logger's dotted name.
func (l *Logger) Name() string { return l.name }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }

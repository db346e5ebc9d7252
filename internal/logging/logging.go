// Package logging wraps zap.Logger so the crowd engine never reaches for a
// package-level global: every component that logs takes a *Logger at
// construction time, defaulting to a no-op logger when the caller doesn't
// care to configure one.
package logging

import "go.uber.org/zap"

// Logger is the structured logger injected into Crowd and the cmd/crowd
// CLI.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing *zap.Logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewDevelopment returns a human-readable, debug-level logger suitable for
// the demo CLI.
func NewDevelopment() *Logger {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewProduction returns a JSON, info-level logger.
func NewProduction() *Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a logger that discards everything, the default when no
// logger is supplied.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Debug logs a debug-level event with structured fields — the per-agent id
// and tick number the engine's debug events carry.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Info logs an info-level event.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }

// Warn logs a warn-level event.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }

// Error logs an error-level event.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }

// AgentID and Tick are the two structured fields every per-agent debug
// event carries, per the engine's logging convention.
func AgentID(id int) zap.Field { return zap.Int("agent_id", id) }
func Tick(n uint64) zap.Field  { return zap.Uint64("tick", n) }

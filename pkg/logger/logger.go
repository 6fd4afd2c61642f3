// Package logger builds the structured logger shared by every Ignite
// subsystem. All components accept a *zap.SugaredLogger through their
// Config rather than reaching for a package-level global, so callers can
// swap in their own zap configuration (or a test observer) when embedding
// the engine.
package logger

import (
	"go.uber.org/zap"
)

// New builds a production zap logger tagged with the given service name.
// It falls back to a no-op logger if zap's production config fails to
// build, which only happens when the process has no writable stderr.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return log.Sugar().With("service", service)
}

// Nop returns a logger that discards everything. Useful for tests and for
// embedders that want to run Ignite silently.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

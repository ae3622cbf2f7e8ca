package gateway

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	// loggerMu protects Logger from concurrent access in tests.
	loggerMu sync.RWMutex

	// Logger is the package-level logger for gateway operations.
	// Defaults to a no-op logger until explicitly configured.
	Logger = zerolog.Nop()
)

// SetLogger sets the package-level logger for gateway operations.
// Call this during application initialization.
func SetLogger(l *zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	Logger = l.With().Str("component", "gateway").Logger()
}

func logger() *zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	l := Logger
	return &l
}

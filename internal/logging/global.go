// This file holds the process-wide logger. Components constructed without
// a logger of their own log through it.
package logging

import "sync"

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	discard      = NewNoop()
)

// Global returns the logger installed with SetGlobal, or a no-op logger
// when none is installed.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return discard
	}
	return globalLogger
}

// SetGlobal installs l as the process-wide logger. A nil l restores the
// no-op logger.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Debug logs a debug message using the global logger.
func Debug(msg string, args ...any) {
	Global().Debug(msg, args...)
}

// CloseGlobal closes the installed logger and uninstalls it.
func CloseGlobal() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	err := globalLogger.Close()
	globalLogger = nil
	return err
}

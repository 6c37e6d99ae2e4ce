package observability

import (
	"runtime/debug"
)

// RecoverPanic logs a recovered panic with its stack and swallows it.
// Call it deferred at the top of background jobs:
//
//	defer observability.RecoverPanic(logger, "account gauge refresh")
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		LogPanic(logger, r, where)
	}
}

// LogPanic logs an already recovered panic value with the current stack
func LogPanic(logger *Logger, value interface{}, where string) {
	logger.WithFields(map[string]interface{}{
		"panic":   value,
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")
}

// Package logger provides the process-wide structured logger used across
// the weaver, its supporting packages, and the demo CLI.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
)

// Initialize sets up the package-level logger. debug selects a
// development config with colored level output; otherwise a production
// config is used.
func Initialize(debug bool) {
	mu.Lock()
	defer mu.Unlock()

	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	baseLogger, _ := cfg.Build()
	sugar = baseLogger.Sugar()
}

// Get returns the sugared logger, initializing a debug-mode logger on
// first use if nothing called Initialize yet.
func Get() *zap.SugaredLogger {
	mu.Lock()
	needsInit := sugar == nil
	mu.Unlock()

	if needsInit {
		Initialize(true)
	}

	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if sugar != nil {
		_ = sugar.Sync()
	}
}

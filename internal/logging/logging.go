// Package logging provides categorized structured logging for attune.
// Each subsystem logs through a named child of one process-wide zap logger;
// categories show up as the logger name so log streams can be filtered
// per-subsystem.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a log stream. One per subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"
	CategoryRouting  Category = "routing"
	CategoryAgents   Category = "agents"
	CategorySafety   Category = "safety"
	CategoryRupture  Category = "rupture"
	CategoryConsult  Category = "consult"
	CategoryRepair   Category = "repair"
	CategoryTraining Category = "training"
	CategoryMemory   Category = "memory"
	CategoryCache    Category = "cache"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init builds the process logger. Call once at startup; before Init (and in
// tests) every category logs to a nop logger.
func Init(level string, jsonFormat bool) error {
	cfg := zap.NewProductionConfig()
	if !jsonFormat {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// SetLogger replaces the root logger. Used by tests to capture output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	root = l
}

// Get returns the logger for a category.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(cat))
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
)

// Logger returns the shared logger. It is a no-op logger until SetLogger is
// called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		mu.Lock()
		if logger == nil {
			logger = zap.NewNop()
		}
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the shared logger. A nil logger restores the no-op.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// New builds a console logger at the given level ("debug", "info", "warn",
// "error"). Development loggers add caller and stack information.
func New(level string, development bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so components can be handed named children.
type Logger struct {
	*zap.Logger
}

// New builds a logger writing to stdout. Development mode uses the colored
// console encoder and logs at debug level whatever level says; otherwise
// output is JSON at the given level.
func New(level string, development bool) (*Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stdout"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// FromSettings builds a logger from the LOG_LEVEL and LOG_DEV settings.
// An empty or unknown level falls back to info.
func FromSettings(level string, development bool) *Logger {
	if level == "" {
		level = "info"
	}
	logger, err := New(level, development)
	if err == nil {
		return logger
	}
	if logger, err = New("info", development); err == nil {
		return logger
	}
	return NewNop()
}

// NewNop creates a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

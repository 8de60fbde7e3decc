// Package logging owns construction of the zap logger used by every
// sysfacts component. Output goes to stderr so fact values on stdout
// stay machine-readable.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger at the given level. Recognized levels are
// "debug", "info", "warn" and "error"; anything else is an error.
func New(level string) (*zap.Logger, error) {
	var zl zapcore.Level
	switch level {
	case "debug":
		zl = zapcore.DebugLevel
	case "info", "":
		zl = zapcore.InfoLevel
	case "warn", "warning":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Nop returns a logger that discards everything. Used as the default when
// a component is constructed without an explicit logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

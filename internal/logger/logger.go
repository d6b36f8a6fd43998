// Package logger builds the structured logger of the contact book.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a console logger writing to stderr at the given level ("debug", "info", "warn",
// "error"). If verbose is set, the level is lowered to debug regardless of level.
func New(level string, verbose bool) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	if verbose {
		atomicLevel = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = atomicLevel
	config.Development = false
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

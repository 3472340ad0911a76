// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// EnvProduction selects JSON output at info level.
	EnvProduction = "production"
	// EnvDevelopment selects colored console output at debug level.
	EnvDevelopment = "development"
)

// Config selects the encoder preset and the minimum level.
type Config struct {
	Env   string
	Level string
}

// New returns a JSON logger for production and a colored console logger
// otherwise. An empty Level keeps the preset's default.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Env == EnvProduction {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl := strings.TrimSpace(cfg.Level); lvl != "" {
		level, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lvl, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build(zap.AddStacktrace(zap.ErrorLevel))
}

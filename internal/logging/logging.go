// Package logging builds the zap logger used across the shop floor services.
package logging

import (
	"fmt"

	"github.com/zulandar/shopfloor/internal/config"
	"go.uber.org/zap"
)

// New creates a logger from the log section of the config. Every entry
// carries the shop name.
func New(cfg config.LogConfig, shop string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
	}
	zapConfig.Level = level

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	if shop != "" {
		logger = logger.With(zap.String("shop", shop))
	}
	return logger, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"

	"go.uber.org/zap"
)

// LogConfig selects the logger built for the process.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development,omitempty"`
}

func (l LogConfig) level() (zap.AtomicLevel, error) {
	lvl, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return lvl, fmt.Errorf("log: %w", err)
	}
	return lvl, nil
}

// Build creates the logger: JSON output in production, console output with
// stack traces on warnings in development.
func (l LogConfig) Build() (*zap.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

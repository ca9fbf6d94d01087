// Package logging builds the zap logger shared by every component. Output
// goes to a file because the TUI owns the terminal.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level   string
	Path    string
	Version string
	Debug   bool
}

// New builds a JSON logger writing to cfg.Path. An empty path discards output.
func New(cfg Config) (*zap.Logger, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return zap.NewNop(), nil
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.Sampling = nil

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	if cfg.Debug {
		level = "debug"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	zapCfg.OutputPaths = []string{cfg.Path}
	zapCfg.ErrorOutputPaths = []string{cfg.Path}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service", "invoicer")}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	return logger.With(fields...), nil
}

// Component returns a child logger tagged with a component name
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}

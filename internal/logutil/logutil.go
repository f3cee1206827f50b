// Package logutil builds the process logger from viper settings.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config is the logging section of the configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
}

// ConfigFromViper reads logging.level, logging.format and
// logging.add_source. --verbose raises an unset level to debug.
func ConfigFromViper(v *viper.Viper) Config {
	cfg := Config{
		Level:     v.GetString("logging.level"),
		Format:    v.GetString("logging.format"),
		AddSource: v.GetBool("logging.add_source"),
	}
	if !v.IsSet("logging.level") && v.GetBool("verbose") {
		cfg.Level = "debug"
	}
	return cfg
}

// LoggerFromViper returns a logger writing to w.
func LoggerFromViper(v *viper.Viper, w io.Writer) (*slog.Logger, error) {
	return New(ConfigFromViper(v), w)
}

// New returns a text or JSON logger writing to w.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown logging.format: %s", cfg.Format)
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown logging.level: %s", s)
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"mofox-ui/pkg/startup"
)

// startPath returns the path discovery starts from: locate.start_dir when
// set, otherwise the running executable with symlinks resolved.
func startPath(v *viper.Viper) (string, error) {
	if dir := strings.TrimSpace(v.GetString("locate.start_dir")); dir != "" {
		return filepath.Abs(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

// discover runs startup discovery with the configured start path.
func discover(v *viper.Viper, logger *slog.Logger) (*startup.State, error) {
	start, err := startPath(v)
	if err != nil {
		return nil, err
	}
	return startup.Initialize(startup.Options{
		StartDir: start,
		MaxHops:  v.GetInt("locate.max_hops"),
		Logger:   logger,
	}), nil
}

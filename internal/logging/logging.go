// Package logging sets up the trainer console's log file. The console owns
// stdout for the conversation itself, so structured logs go to a rotating
// file instead.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init opens a rotating JSON log at path and installs it as the default
// slog logger.
func Init(path string) (*slog.Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	handler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

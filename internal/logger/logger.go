// Package logger sends slog output to a file so it never mixes with the
// documents a command prints.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/Hanaasagi/patlight/internal/config"
)

// EnvLevel selects the log level.
const EnvLevel = "PATLIGHT_LOG"

func levelFromString(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf", "":
		return slog.LevelInfo, true
	case "warn", "wrn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// DefaultPath is the log file under the XDG state directory.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, config.AppName, config.AppName+".log")
}

// InitLogger makes a text handler writing to path the default slog logger.
// The returned closer releases the file.
func InitLogger(path, level string) (io.Closer, error) {
	loglevel, ok := levelFromString(level)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	// slog defaults to logging in the order of time, level, msg, and other attributes.
	handler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: loglevel})
	slog.SetDefault(slog.New(handler))
	if !ok {
		slog.Warn("unknown log level, using info", "level", level)
	}
	return logFile, nil
}

// InitFromEnv initialises the default log file with the level in EnvLevel.
func InitFromEnv() (io.Closer, error) {
	return InitLogger(DefaultPath(), os.Getenv(EnvLevel))
}

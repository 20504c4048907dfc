package main

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/panbanda/deadscan/pkg/config"
)

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the default slog logger.
//
// Logs go to stderr unless a log file is named by flag or config, in which case
// they go to a rotated file. Verbose forces the debug level.
// The returned closer releases the log file and is never nil.
func configureLogger(cfg config.LogConfig, logPath string, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer) {
	if strings.TrimSpace(logPath) == "" {
		logPath = cfg.File
	}

	level := parseSlogLevel(cfg.Level, slog.LevelWarn)
	if verbose {
		level = slog.LevelDebug
	}

	var writer io.Writer = stderr
	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(logPath) != "" {
		lj := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writer = lj
		closer = lj
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

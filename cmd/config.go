// Package cmd holds the monoform subcommands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	envAddr     = "MONOFORM_ADDR"
	envDb       = "MONOFORM_DB"
	envLogLevel = "MONOFORM_LOG_LEVEL"
)

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("Unknown log level %q:\n%w", s, err)
	}
	return level, nil
}

// Logger that writes text records to stderr at the given level.
func NewLogger(level string) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

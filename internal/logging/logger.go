package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"staybook/internal/config"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New constructs a zerolog logger from config.
// Empty fields mean info level on stderr; format "auto" picks console output on a terminal.
// stdout is left to the CLI's own output.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	var (
		output   io.Writer = os.Stderr
		closer   io.Closer
		terminal = isatty.IsTerminal(os.Stderr.Fd())
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stdout":
		output = os.Stdout
		terminal = isatty.IsTerminal(os.Stdout.Fd())
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
		closer = file
		terminal = false
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	case "auto":
		if terminal {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Logger()

	return &base, closer, nil
}

// Component derives a child logger tagged with the component name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	if base == nil {
		nop := zerolog.Nop()
		return &nop
	}
	l := base.With().Str("component", name).Logger()
	return &l
}

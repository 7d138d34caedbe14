// Package logging builds the process logger from a TOML configuration.
//
// The configuration is looked up in order: an explicit path, logging.toml in
// the working directory, then built-in defaults (info level, text, stderr).
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the configuration file picked up from the working directory.
const DefaultFile = "logging.toml"

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
	ErrInvalidOutput = errors.New("invalid log output")
)

// Config mirrors logging.toml.
type Config struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	Output    string `toml:"output"`
	AddSource bool   `toml:"add_source"`
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}

// Load reads the configuration at path. An empty path falls back to
// DefaultFile when it exists and to DefaultConfig otherwise. Keys missing
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return cfg, nil
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading log config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing log config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseLevel accepts the slog level names plus "warning" and "critical".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "critical":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// New builds a logger from cfg. stdout and stderr select the destination of
// the "stdout" and "stderr" outputs.
func New(cfg Config, stdout, stderr io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		w = stderr
	case "stdout":
		w = stdout
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutput, cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}

	return slog.New(h), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

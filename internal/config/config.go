package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/thomsbe/MarcLinkFinc/internal/marc"
)

const (
	// DefaultProgress is the default interval between progress log lines.
	DefaultProgress = 10 * time.Second

	// FormatAuto detects the input format from the file extension.
	FormatAuto = "auto"

	// TargetExt is appended to the target name.
	TargetExt = ".jsonl"

	EnvSchema    = "MARC2FINC_SCHEMA"
	EnvLogConfig = "MARC2FINC_LOG_CONFIG"
	EnvLogLevel  = "MARC2FINC_LOG_LEVEL"
)

var (
	ErrNoSources      = errors.New("no source files specified")
	ErrNoTarget       = errors.New("no target specified")
	ErrInvalidWorkers = errors.New("workers must be positive")
	ErrInvalidRate    = errors.New("rate limit cannot be negative")
)

// Config represents the complete configuration of a conversion run.
type Config struct {
	Sources []string
	// Target is the output name; the extension is replaced by TargetExt.
	Target string
	// Schema is a path to a YAML schema. Empty selects the built-in schema.
	Schema string
	// Format is FormatAuto or one of marc.Formats.
	Format string

	Workers   int
	Progress  time.Duration
	RateLimit float64 // Records per second (0 = unlimited)

	LogConfig string
	LogLevel  string
}

// Default returns a Config with every optional setting filled in.
func Default() *Config {
	return &Config{
		Format:   FormatAuto,
		Workers:  runtime.GOMAXPROCS(0),
		Progress: DefaultProgress,
	}
}

// ApplyEnv fills settings that were left empty from the environment.
// lookup has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	set(&c.Schema, EnvSchema)
	set(&c.LogConfig, EnvLogConfig)
	set(&c.LogLevel, EnvLogLevel)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	for _, file := range c.Sources {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("source file %s not found: %w", file, err)
		}
	}

	if strings.TrimSpace(c.Target) == "" {
		return ErrNoTarget
	}

	if c.Schema != "" {
		if _, err := os.Stat(c.Schema); err != nil {
			return fmt.Errorf("schema file %s not found: %w", c.Schema, err)
		}
	}

	if c.Format != "" && c.Format != FormatAuto {
		if _, err := marc.ParseFormat(c.Format); err != nil {
			return err
		}
	}

	if c.Workers <= 0 {
		return fmt.Errorf("%w, got: %d", ErrInvalidWorkers, c.Workers)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("%w, got: %g", ErrInvalidRate, c.RateLimit)
	}

	return nil
}

// TargetFile returns the path the documents are written to.
func (c *Config) TargetFile() string {
	return strings.TrimSuffix(c.Target, filepath.Ext(c.Target)) + TargetExt
}

// SourceFormat returns the record format of path.
func (c *Config) SourceFormat(path string) (marc.Format, error) {
	if c.Format == "" || c.Format == FormatAuto {
		return marc.FormatFromPath(path), nil
	}
	return marc.ParseFormat(c.Format)
}

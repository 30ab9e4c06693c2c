package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config selects the level, encoding and destination of a Logger. Empty
// fields take the values of DefaultConfig.
type Config struct {
	// Level is one of debug, info, warn (or warning), error, fatal.
	Level string
	// Format is json, or console (alias text).
	Format string
	// Output is stdout, stderr, "-" for stdout, or a file path opened for append.
	Output string
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger builds a Logger from cfg. Unknown levels and formats are
// rejected rather than replaced with a default.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	return New(level, output).WithFormat(format), nil
}

// ParseLevel converts a level name, in any case, to a LogLevel. The empty
// string is InfoLevel.
func ParseLevel(level string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(level))
	switch name {
	case "":
		return InfoLevel, nil
	case "WARNING":
		return WarnLevel, nil
	}
	if _, ok := levelRank[LogLevel(name)]; !ok {
		return InfoLevel, fmt.Errorf("logging: unknown level %q", level)
	}
	return LogLevel(name), nil
}

// ParseFormat converts a format name to a Format. The empty string is
// JSONFormat.
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return JSONFormat, nil
	case "console", "text":
		return ConsoleFormat, nil
	default:
		return JSONFormat, fmt.Errorf("logging: unknown format %q", format)
	}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout", "-":
		return os.Stdout, nil
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", output, err)
	}
	return file, nil
}

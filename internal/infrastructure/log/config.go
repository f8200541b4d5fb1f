package log

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by NewConfigFromEnv. The unprefixed LOG_* names are accepted
// as fallbacks.
const (
	EnvLevel     = "EDACHAT_LOG_LEVEL"
	EnvFormat    = "EDACHAT_LOG_FORMAT"
	EnvOutput    = "EDACHAT_LOG_OUTPUT"
	EnvAddSource = "EDACHAT_LOG_ADD_SOURCE"
	EnvMode      = "EDACHAT_ENV"
)

// Config describes where and how log records are written.
type Config struct {
	// Level: debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format: console, json
	Format string `json:"format" yaml:"format"`

	// Output: stdout, stderr, file:/path/to/log
	Output string `json:"output" yaml:"output"`

	AddSource bool `json:"add_source" yaml:"add_source"`
}

// NewConfigFromEnv builds a Config from the environment. EDACHAT_ENV=development forces
// debug level with console output and source locations.
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     lookup("info", EnvLevel, "LOG_LEVEL"),
		Format:    lookup("console", EnvFormat, "LOG_FORMAT"),
		Output:    lookup("stdout", EnvOutput, "LOG_OUTPUT"),
		AddSource: parseBool(lookup("", EnvAddSource, "LOG_ADD_SOURCE"), false),
	}

	if strings.EqualFold(lookup("production", EnvMode, "ENV"), "development") {
		cfg.Level = "debug"
		cfg.Format = "console"
		cfg.AddSource = true
	}

	return cfg
}

// lookup returns the first non-empty variable among keys, else def.
func lookup(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func parseBool(value string, def bool) bool {
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/edachat/backend/internal/infrastructure/log/handler"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	debugMode     bool
	logFile       *os.File
)

// ServiceName is attached to every record.
const ServiceName = "edachat-backend"

// Init configures the process-wide logger. A nil cfg reads the environment.
func Init(cfg *Config) {
	if cfg == nil {
		cfg = NewConfigFromEnv()
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: %v, falling back to stdout\n", err)
		out = os.Stdout
	}

	var logHandler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		logHandler = slog.NewJSONHandler(out, opts)
	} else {
		logHandler = handler.NewConsoleHandler(out, opts)
	}

	mu.Lock()
	defaultLogger = slog.New(logHandler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
	}))
	debugMode = strings.ToLower(cfg.Level) == "debug"
	mu.Unlock()

	slog.SetDefault(defaultLogger)
}

// openOutput resolves "stdout", "stderr" or "file:<path>".
func openOutput(output string) (io.Writer, error) {
	switch {
	case output == "" || output == "stdout":
		return os.Stdout, nil
	case output == "stderr":
		return os.Stderr, nil
	case strings.HasPrefix(output, "file:"):
		path := strings.TrimPrefix(output, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		mu.Lock()
		if logFile != nil {
			_ = logFile.Close()
		}
		logFile = f
		mu.Unlock()
		return f, nil
	default:
		return nil, fmt.Errorf("unknown log output %q", output)
	}
}

// GetLogger returns the process-wide logger, initializing it from the environment on first use.
func GetLogger() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		Init(nil)
		mu.Lock()
		l = defaultLogger
		mu.Unlock()
	}
	return l
}

// With returns the default logger with extra fields.
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// NewModuleLogger returns a logger tagged with module and component.
func NewModuleLogger(module, component string) *slog.Logger {
	return GetLogger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// IsDebugMode reports whether the configured level is debug.
func IsDebugMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variables with dedicated names. Every other key is reachable through
// EDACHAT_<SECTION>_<KEY>, e.g. EDACHAT_EXECUTION_MAX_STEPS.
const (
	EnvHTTPPort   = "EDACHAT_HTTP_PORT"
	EnvLLMAPIKey  = "EDACHAT_LLM_API_KEY"
	EnvLLMBaseURL = "EDACHAT_LLM_BASE_URL"
	EnvLLMModel   = "EDACHAT_LLM_MODEL"
	EnvDBPath     = "EDACHAT_DB_PATH"
	EnvInboxDir   = "EDACHAT_INBOX_DIR"
)

// ConfigFileName is looked up inside the data directory.
const ConfigFileName = "config.yaml"

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Execution ExecutionConfig `mapstructure:"execution" yaml:"execution"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload"`
	Inbox     InboxConfig     `mapstructure:"inbox" yaml:"inbox"`
	Summary   SummaryConfig   `mapstructure:"summary" yaml:"summary"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	HTTPPort        string        `mapstructure:"http_port" yaml:"http_port" validate:"required,startswith=:"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig controls the durable session store. Disabled runs memory-only.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LLMConfig configures the OpenAI-compatible text generation endpoint.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// ExecutionConfig bounds generated code execution and its cache.
type ExecutionConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxSteps  uint64        `mapstructure:"max_steps" yaml:"max_steps" validate:"gt=0"`
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size" validate:"gt=0"`
}

// UploadConfig limits uploaded datasets.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes" validate:"gt=0"`
}

// InboxConfig configures the watched directory whose CSV files open new sessions.
type InboxConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir      string        `mapstructure:"dir" yaml:"dir" validate:"required_if=Enabled true"`
	UserID   string        `mapstructure:"user_id" yaml:"user_id"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// SummaryConfig caps the dataset summary injected into prompts.
type SummaryConfig struct {
	MaxColumns  int `mapstructure:"max_columns" yaml:"max_columns" validate:"gt=0,lte=30"`
	SampleRows  int `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=0,lte=3"`
	TokenBudget int `mapstructure:"token_budget" yaml:"token_budget" validate:"gte=0"`

	// MemoryTokenBudget bounds the memory projections sent to the model. Zero sends all.
	MemoryTokenBudget int `mapstructure:"memory_token_budget" yaml:"memory_token_budget" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        ":19970",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled: true,
			Path:    "",
		},
		LLM: LLMConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:       "gemini-2.0-flash",
			Temperature: 0,
			Timeout:     30 * time.Second,
		},
		Execution: ExecutionConfig{
			Timeout:   10 * time.Second,
			MaxSteps:  50_000_000,
			CacheSize: 256,
		},
		Upload: UploadConfig{
			MaxBytes: 200 * 1024 * 1024,
		},
		Inbox: InboxConfig{
			Enabled:  false,
			Debounce: 500 * time.Millisecond,
			UserID:   "inbox",
		},
		Summary: SummaryConfig{
			MaxColumns:  30,
			SampleRows:  3,
			TokenBudget: 2000,
		},
	}
}

// NewConfig loads the configuration: defaults, then config.yaml in the data directory
// when present, then environment variables.
func NewConfig() (*Config, error) {
	path := filepath.Join(GetDataDir(), ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	return Load(path)
}

// Load reads the configuration from path (optional) and the environment, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("EDACHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindings := map[string][]string{
		"server.http_port": {EnvHTTPPort},
		"llm.api_key":      {EnvLLMAPIKey, "GOOGLE_API_KEY", "OPENAI_API_KEY"},
		"llm.base_url":     {EnvLLMBaseURL},
		"llm.model":        {EnvLLMModel},
		"database.path":    {EnvDBPath},
		"inbox.dir":        {EnvInboxDir},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Database.Enabled && cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(GetDataDir(), "edachat.db")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("execution.timeout", d.Execution.Timeout)
	v.SetDefault("execution.max_steps", d.Execution.MaxSteps)
	v.SetDefault("execution.cache_size", d.Execution.CacheSize)
	v.SetDefault("upload.max_bytes", d.Upload.MaxBytes)
	v.SetDefault("inbox.enabled", d.Inbox.Enabled)
	v.SetDefault("inbox.dir", d.Inbox.Dir)
	v.SetDefault("inbox.user_id", d.Inbox.UserID)
	v.SetDefault("inbox.debounce", d.Inbox.Debounce)
	v.SetDefault("summary.max_columns", d.Summary.MaxColumns)
	v.SetDefault("summary.sample_rows", d.Summary.SampleRows)
	v.SetDefault("summary.token_budget", d.Summary.TokenBudget)
	v.SetDefault("summary.memory_token_budget", d.Summary.MemoryTokenBudget)
}

var validate = validator.New()

// Validate checks field constraints and returns a readable error listing every violation.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Masked returns a copy safe for display, with the API key hidden.
func (c *Config) Masked() *Config {
	out := *c
	if out.LLM.APIKey != "" {
		key := out.LLM.APIKey
		if len(key) > 4 {
			out.LLM.APIKey = strings.Repeat("*", len(key)-4) + key[len(key)-4:]
		} else {
			out.LLM.APIKey = "****"
		}
	}
	return &out
}

// NewServerConfig exposes the server section.
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig exposes the database section.
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewLLMConfig exposes the LLM section.
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewExecutionConfig exposes the execution section.
func NewExecutionConfig(cfg *Config) *ExecutionConfig {
	return &cfg.Execution
}

// NewUploadConfig exposes the upload section.
func NewUploadConfig(cfg *Config) *UploadConfig {
	return &cfg.Upload
}

// NewInboxConfig exposes the inbox section.
func NewInboxConfig(cfg *Config) *InboxConfig {
	return &cfg.Inbox
}

// NewSummaryConfig exposes the summary section.
func NewSummaryConfig(cfg *Config) *SummaryConfig {
	return &cfg.Summary
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "sakemate"

type Config struct {
	AI      AIConfig      `yaml:"ai" mapstructure:"ai"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

type AIConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Model    string `yaml:"model" mapstructure:"model"`
	Language string `yaml:"language" mapstructure:"language"`
	// Timeout bounds a single model call; zero means no limit.
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	Breaker       BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	MaxImageBytes int64         `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
}

type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled" mapstructure:"enabled"`
	FailureThreshold uint32        `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

type StorageConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	Path      string `yaml:"path" mapstructure:"path"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	CORSOrigins       []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRequests int           `yaml:"rate_limit_requests" mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window" mapstructure:"rate_limit_window"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ErrNoAPIKey is returned by RequireAPIKey when no Gemini key is configured.
var ErrNoAPIKey = errors.New("config: no Gemini API key (set GEMINI_API_KEY or ai.api_key)")

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			BaseURL:       "https://generativelanguage.googleapis.com",
			Model:         "gemini-2.0-flash-exp",
			Language:      "Japanese",
			MaxImageBytes: 20 << 20,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
			},
		},
		Storage: StorageConfig{
			Driver:    "badger",
			Path:      defaultDataDir(),
			KeyPrefix: "sakemate:",
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8080",
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// Path is where a user config file is expected by default.
func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, "config.yaml")
}

// Load reads configuration from file (an explicit path, or config.yaml in
// the usual places when file is empty) and SAKEMATE_* environment variables.
func Load(file string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(Path()))
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.AI.APIKey = expandEnv(cfg.AI.APIKey)
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.AI.BaseURL = expandEnv(cfg.AI.BaseURL)
	cfg.Storage.Path = expandEnv(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.language", d.AI.Language)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)
	v.SetDefault("ai.max_image_bytes", d.AI.MaxImageBytes)
	v.SetDefault("ai.breaker.enabled", d.AI.Breaker.Enabled)
	v.SetDefault("ai.breaker.failure_threshold", d.AI.Breaker.FailureThreshold)
	v.SetDefault("ai.breaker.open_timeout", d.AI.Breaker.OpenTimeout)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key_prefix", d.Storage.KeyPrefix)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.rate_limit_requests", d.Server.RateLimitRequests)
	v.SetDefault("server.rate_limit_window", d.Server.RateLimitWindow)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks the configuration for errors and fills zero values that
// have a sensible default.
func (c *Config) Validate() error {
	d := DefaultConfig()

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = d.Storage.Driver
	case "badger", "file", "memory":
	default:
		return fmt.Errorf("config: storage.driver %q is invalid (must be badger, file, or memory)", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path is required for driver %q", c.Storage.Driver)
	}

	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = d.AI.BaseURL
	}
	if c.AI.Language == "" {
		c.AI.Language = d.AI.Language
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("config: ai.timeout must not be negative")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("config: ai.max_retries must not be negative")
	}
	if c.AI.MaxImageBytes <= 0 {
		c.AI.MaxImageBytes = d.AI.MaxImageBytes
	}
	if c.AI.Breaker.FailureThreshold == 0 {
		c.AI.Breaker.FailureThreshold = d.AI.Breaker.FailureThreshold
	}
	if c.AI.Breaker.OpenTimeout <= 0 {
		c.AI.Breaker.OpenTimeout = d.AI.Breaker.OpenTimeout
	}

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("config: server.rate_limit_requests must not be negative")
	}
	if c.Server.RateLimitWindow <= 0 {
		c.Server.RateLimitWindow = d.Server.RateLimitWindow
	}

	switch strings.ToLower(c.Log.Level) {
	case "":
		c.Log.Level = d.Log.Level
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "off":
	default:
		return fmt.Errorf("config: log.level %q is invalid", c.Log.Level)
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = d.Log.Format
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid (must be json or console)", c.Log.Format)
	}
	return nil
}

// RequireAPIKey reports ErrNoAPIKey for commands that talk to the model.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Package config loads client settings from defaults, an optional TOML file
// and MEETNOTE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "MEETNOTE"

// Defaults.
const (
	DefaultAPIBaseURL         = "http://localhost:5000/v1"
	DefaultHealthURL          = "http://localhost:5000/health"
	DefaultProbeTimeout       = 3 * time.Second
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultReplyDelay         = time.Second
	DefaultProgressResetDelay = 3 * time.Second
	DefaultMockUploadDuration = time.Second
)

// Config holds client configuration. Fields carry no envconfig defaults so an
// unset variable leaves the value from the file in place.
type Config struct {
	APIBaseURL         string        `envconfig:"API_BASE_URL"`
	HealthURL          string        `envconfig:"HEALTH_URL"`
	ProbeTimeout       time.Duration `envconfig:"PROBE_TIMEOUT"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT"`
	ReplyDelay         time.Duration `envconfig:"REPLY_DELAY"`
	ProgressResetDelay time.Duration `envconfig:"PROGRESS_RESET_DELAY"`
	MockUploadDuration time.Duration `envconfig:"MOCK_UPLOAD_DURATION"`
	LogLevel           string        `envconfig:"LOG_LEVEL"`
	Debug              bool          `envconfig:"DEBUG"`
}

type fileConfig struct {
	APIBaseURL         string `toml:"api_base_url"`
	HealthURL          string `toml:"health_url"`
	ProbeTimeout       string `toml:"probe_timeout"`
	HTTPTimeout        string `toml:"http_timeout"`
	ReplyDelay         string `toml:"reply_delay"`
	ProgressResetDelay string `toml:"progress_reset_delay"`
	MockUploadDuration string `toml:"mock_upload_duration"`
	LogLevel           string `toml:"log_level"`
	Debug              *bool  `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:         DefaultAPIBaseURL,
		HealthURL:          DefaultHealthURL,
		ProbeTimeout:       DefaultProbeTimeout,
		HTTPTimeout:        DefaultHTTPTimeout,
		ReplyDelay:         DefaultReplyDelay,
		ProgressResetDelay: DefaultProgressResetDelay,
		MockUploadDuration: DefaultMockUploadDuration,
		LogLevel:           "info",
	}
}

// Load reads .env from the working directory when present, then the config
// file under the user config dir, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("ignoring unreadable .env file")
	}
	return LoadFile(FilePath())
}

// LoadFile applies the TOML file at path (skipped when empty or missing) and
// then the environment on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api base url is required")
	}
	if c.HealthURL == "" {
		return errors.New("health url is required")
	}
	if c.ProbeTimeout <= 0 || c.HTTPTimeout <= 0 {
		return errors.New("timeouts must be > 0")
	}
	if c.ReplyDelay < 0 || c.ProgressResetDelay < 0 || c.MockUploadDuration < 0 {
		return errors.New("delays must be >= 0")
	}
	return nil
}

// FilePath returns the config file location, or "" when no file exists.
func FilePath() string {
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "meetnote")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "meetnote")
	} else {
		return ""
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.HealthURL != "" {
		cfg.HealthURL = fc.HealthURL
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"probe_timeout", fc.ProbeTimeout, &cfg.ProbeTimeout},
		{"http_timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"reply_delay", fc.ReplyDelay, &cfg.ReplyDelay},
		{"progress_reset_delay", fc.ProgressResetDelay, &cfg.ProgressResetDelay},
		{"mock_upload_duration", fc.MockUploadDuration, &cfg.MockUploadDuration},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}
	return nil
}

// Init sets up the global logger for the configured level.
func (c *Config) Init() {
	InitLogger(nil)
	SetLogLevel(ParseLevel(c.LogLevel))

	log.Debug().
		Str("api_base_url", c.APIBaseURL).
		Str("health_url", c.HealthURL).
		Dur("probe_timeout", c.ProbeTimeout).
		Str("log_level", c.LogLevel).
		Msg("client configuration loaded")
}

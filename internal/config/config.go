package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Formats   FormatsConfig   `yaml:"formats"`
	Platforms PlatformsConfig `yaml:"platforms"`
	History   HistoryConfig   `yaml:"history"`
	LogLevel  string          `yaml:"log_level" envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"PORT" default:"3000"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"30m"`

	// BaseURL is the public URL download links are built from. When empty it
	// is derived from the hosting platform's environment.
	BaseURL       string `yaml:"base_url" envconfig:"PUBLIC_BASE_URL"`
	RailwayDomain string `yaml:"railway_public_domain" envconfig:"RAILWAY_PUBLIC_DOMAIN"`
	RenderURL     string `yaml:"render_external_url" envconfig:"RENDER_EXTERNAL_URL"`
}

// CORSConfig holds cross-origin configuration for the browser front end.
type CORSConfig struct {
	AllowedOrigins  []string `yaml:"allowed_origins" envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	FrontendURL     string   `yaml:"frontend_url" envconfig:"FRONTEND_URL"`
	AllowedSuffixes []string `yaml:"allowed_suffixes" envconfig:"CORS_ALLOWED_SUFFIXES" default:".vercel.app"`
}

// ExtractorConfig holds yt-dlp invocation configuration.
type ExtractorConfig struct {
	Binary             string        `yaml:"binary" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	Timeout            time.Duration `yaml:"timeout" envconfig:"EXTRACTOR_TIMEOUT" default:"60s"`
	MaxAttempts        int           `yaml:"max_attempts" envconfig:"EXTRACTOR_MAX_ATTEMPTS" default:"2"`
	RetryDelay         time.Duration `yaml:"retry_delay" envconfig:"EXTRACTOR_RETRY_DELAY" default:"2s"`
	MaxRetryDelay      time.Duration `yaml:"max_retry_delay" envconfig:"EXTRACTOR_MAX_RETRY_DELAY" default:"10s"`
	NoCheckCertificate bool          `yaml:"no_check_certificate" envconfig:"EXTRACTOR_NO_CHECK_CERTIFICATE" default:"true"`
}

// FormatsConfig holds format selection configuration.
type FormatsConfig struct {
	MaxResults int `yaml:"max_results" envconfig:"FORMATS_MAX_RESULTS" default:"10"`
}

// PlatformsConfig controls which platforms accept download requests.
type PlatformsConfig struct {
	Disabled []string `yaml:"disabled" envconfig:"PLATFORMS_DISABLED" default:"twitter"`
}

// HistoryConfig holds lookup history configuration.
type HistoryConfig struct {
	// SQLitePath enables persistent history when set; otherwise history is
	// kept in memory.
	SQLitePath string `yaml:"sqlite_path" envconfig:"HISTORY_SQLITE_PATH"`
	MaxEntries int    `yaml:"max_entries" envconfig:"HISTORY_MAX_ENTRIES" default:"1000"`

	// Lookups are written by background workers through a bounded queue.
	Workers   int `yaml:"workers" envconfig:"HISTORY_WORKERS" default:"1"`
	QueueSize int `yaml:"queue_size" envconfig:"HISTORY_QUEUE_SIZE" default:"256"`
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Defaults and environment.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		// The file replaced environment values too; put those back.
		env := &Config{}
		if err := envconfig.Process("", env); err != nil {
			return nil, fmt.Errorf("process environment: %w", err)
		}
		overlayEnv(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(env).Elem(), "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// overlayEnv copies every field of src into dst whose environment variable
// is set, using the same names envconfig looks up.
func overlayEnv(dst, src reflect.Value, prefix string) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("envconfig")

		if field.Type.Kind() == reflect.Struct {
			overlayEnv(dst.Field(i), src.Field(i), strings.ToUpper(field.Name))
			continue
		}
		if tag == "" {
			continue
		}

		_, set := os.LookupEnv(tag)
		if !set && prefix != "" {
			_, set = os.LookupEnv(prefix + "_" + tag)
		}
		if set {
			dst.Field(i).Set(src.Field(i))
		}
	}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Extractor.Binary == "" {
		return fmt.Errorf("YTDLP_PATH is required")
	}
	if c.Extractor.Timeout <= 0 {
		return fmt.Errorf("EXTRACTOR_TIMEOUT must be positive")
	}
	if c.Extractor.MaxAttempts < 1 {
		return fmt.Errorf("EXTRACTOR_MAX_ATTEMPTS must be at least 1")
	}
	if c.Formats.MaxResults < 1 {
		return fmt.Errorf("FORMATS_MAX_RESULTS must be at least 1")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PublicBaseURL returns the URL clients reach this server at.
func (c *ServerConfig) PublicBaseURL() string {
	switch {
	case c.BaseURL != "":
		return strings.TrimSuffix(c.BaseURL, "/")
	case c.RailwayDomain != "":
		return "https://" + c.RailwayDomain
	case c.RenderURL != "":
		return strings.TrimSuffix(c.RenderURL, "/")
	default:
		return fmt.Sprintf("http://localhost:%d", c.Port)
	}
}

// Origins returns the explicit CORS allow list including the front end URL.
func (c *CORSConfig) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if c.FrontendURL != "" {
		origins = append(origins, strings.TrimSuffix(c.FrontendURL, "/"))
	}
	return origins
}

// IsDisabled reports whether downloads for the named platform are switched off.
func (c *PlatformsConfig) IsDisabled(platform string) bool {
	for _, d := range c.Disabled {
		if strings.EqualFold(strings.TrimSpace(d), platform) {
			return true
		}
	}
	return false
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
	}
}

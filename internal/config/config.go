package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/icon-grid/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultCanvasSize     = 512
	defaultMinCanvasSize  = 16
	defaultMaxCanvasSize  = 4096
	defaultMaxUploadBytes = 8 << 20
	defaultMaxImagePixels = 4096 * 4096
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `yaml:"port"`
	DefaultCanvasSize    int           `yaml:"canvas_size"`
	MinCanvasSize        int           `yaml:"min_canvas_size"`
	MaxCanvasSize        int           `yaml:"max_canvas_size"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	MaxImagePixels       int           `yaml:"max_image_pixels"`
	MaxIcons             int           `yaml:"max_icons"`
	LogLevel             string        `yaml:"log_level"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
// Pointer fields distinguish "absent" from an explicit zero.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	CanvasSize           int           `yaml:"canvas_size"`
	MinCanvasSize        int           `yaml:"min_canvas_size"`
	MaxCanvasSize        int           `yaml:"max_canvas_size"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	MaxImagePixels       int           `yaml:"max_image_pixels"`
	MaxIcons             int           `yaml:"max_icons"`
	LogLevel             string        `yaml:"log_level"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	CanvasSize     *int
	MinCanvasSize  *int
	MaxCanvasSize  *int
	MaxImagePixels *int
	MaxIcons       *int
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so that YAML and flags can override it.
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		DefaultCanvasSize:    defaultCanvasSize,
		MinCanvasSize:        defaultMinCanvasSize,
		MaxCanvasSize:        defaultMaxCanvasSize,
		MaxUploadBytes:       defaultMaxUploadBytes,
		MaxImagePixels:       defaultMaxImagePixels,
		MaxIcons:             storage.DefaultMaxIcons,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.CanvasSize > 0 {
		cfg.DefaultCanvasSize = yamlCfg.CanvasSize
	}
	if yamlCfg.MinCanvasSize > 0 {
		cfg.MinCanvasSize = yamlCfg.MinCanvasSize
	}
	if yamlCfg.MaxCanvasSize > 0 {
		cfg.MaxCanvasSize = yamlCfg.MaxCanvasSize
	}
	if yamlCfg.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = yamlCfg.MaxUploadBytes
	}
	if yamlCfg.MaxImagePixels > 0 {
		cfg.MaxImagePixels = yamlCfg.MaxImagePixels
	}
	if yamlCfg.MaxIcons > 0 {
		cfg.MaxIcons = yamlCfg.MaxIcons
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	durations := []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	envInt("CANVAS_SIZE", &cfg.DefaultCanvasSize)
	envInt("MIN_CANVAS_SIZE", &cfg.MinCanvasSize)
	envInt("MAX_CANVAS_SIZE", &cfg.MaxCanvasSize)
	envInt("MAX_IMAGE_PIXELS", &cfg.MaxImagePixels)
	envInt("MAX_ICONS", &cfg.MaxIcons)

	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value > 0 {
			cfg.MaxUploadBytes = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// envInt overwrites dst with a positive integer read from key, if set.
func envInt(key string, dst *int) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dst = value
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.CanvasSize != nil && *overrides.CanvasSize > 0 {
		cfg.DefaultCanvasSize = *overrides.CanvasSize
	}

	positive := []struct {
		src *int
		dst *int
	}{
		{overrides.MinCanvasSize, &cfg.MinCanvasSize},
		{overrides.MaxCanvasSize, &cfg.MaxCanvasSize},
		{overrides.MaxImagePixels, &cfg.MaxImagePixels},
	}
	for _, o := range positive {
		if o.src != nil && *o.src > 0 {
			*o.dst = *o.src
		}
	}

	if overrides.MaxIcons != nil && *overrides.MaxIcons > 0 {
		cfg.MaxIcons = *overrides.MaxIcons
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MinCanvasSize <= 0 || cfg.MinCanvasSize > cfg.MaxCanvasSize {
		return fmt.Errorf("canvas size bounds invalid: min %d, max %d", cfg.MinCanvasSize, cfg.MaxCanvasSize)
	}
	if cfg.DefaultCanvasSize < cfg.MinCanvasSize || cfg.DefaultCanvasSize > cfg.MaxCanvasSize {
		return fmt.Errorf("canvas size %d outside [%d, %d]", cfg.DefaultCanvasSize, cfg.MinCanvasSize, cfg.MaxCanvasSize)
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if cfg.MaxImagePixels <= 0 {
		return fmt.Errorf("max image pixels must be positive")
	}
	if cfg.MaxIcons <= 0 {
		return fmt.Errorf("max icons must be positive")
	}
	return nil
}

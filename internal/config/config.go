package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel        slog.Level    `yaml:"log_level"`
	HTTPAddr        string        `yaml:"http_addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	DatasetPath    string        `yaml:"dataset_path" validate:"required_without=DatasetURL"`
	DatasetURL     string        `yaml:"dataset_url" validate:"omitempty,url"`
	DatasetTimeout time.Duration `yaml:"dataset_timeout" validate:"gt=0"`

	ViewportMin  float64 `yaml:"viewport_min"`
	ViewportMax  float64 `yaml:"viewport_max" validate:"gtfield=ViewportMin"`
	PlotWidthIn  float64 `yaml:"plot_width_in" validate:"gt=0"`
	PlotHeightIn float64 `yaml:"plot_height_in" validate:"gt=0"`
	WSSendBuffer int     `yaml:"ws_send_buffer" validate:"min=1"`

	RedisEnabled  bool          `yaml:"redis_enabled"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=RedisEnabled true"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"min=0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"gt=0"`

	RateLimitPerWindow int           `yaml:"rate_limit_per_window" validate:"min=1"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window" validate:"gt=0"`
	RateLimitWhitelist []string      `yaml:"rate_limit_whitelist"`
}

func Default() *Config {
	return &Config{
		LogLevel:        slog.LevelInfo,
		HTTPAddr:        ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 30 * time.Second,

		DatasetTimeout: 30 * time.Second,

		ViewportMin:  0,
		ViewportMax:  10,
		PlotWidthIn:  6,
		PlotHeightIn: 6,
		WSSendBuffer: 256,

		RedisAddr: "localhost:6379",
		CacheTTL:  24 * time.Hour,

		RateLimitPerWindow: 120,
		RateLimitWindow:    time.Minute,
	}
}

var validate = validator.New()

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE and the environment, in that order, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getLogLevelEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.ReadTimeout = getDurationEnv("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getDurationEnv("WRITE_TIMEOUT", c.WriteTimeout)
	c.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.DatasetPath = getEnv("DATASET_PATH", c.DatasetPath)
	c.DatasetURL = getEnv("DATASET_URL", c.DatasetURL)
	c.DatasetTimeout = getDurationEnv("DATASET_TIMEOUT", c.DatasetTimeout)

	c.ViewportMin = getFloatEnv("VIEWPORT_MIN", c.ViewportMin)
	c.ViewportMax = getFloatEnv("VIEWPORT_MAX", c.ViewportMax)
	c.PlotWidthIn = getFloatEnv("PLOT_WIDTH_IN", c.PlotWidthIn)
	c.PlotHeightIn = getFloatEnv("PLOT_HEIGHT_IN", c.PlotHeightIn)
	c.WSSendBuffer = getIntEnv("WS_SEND_BUFFER", c.WSSendBuffer)

	c.RedisEnabled = getBoolEnv("REDIS_ENABLED", c.RedisEnabled)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getIntEnv("REDIS_DB", c.RedisDB)
	c.CacheTTL = getDurationEnv("CACHE_TTL", c.CacheTTL)

	c.RateLimitPerWindow = getIntEnv("RATE_LIMIT_PER_WINDOW", c.RateLimitPerWindow)
	c.RateLimitWindow = getDurationEnv("RATE_LIMIT_WINDOW", c.RateLimitWindow)
	if wl := getCSVEnv("RATE_LIMIT_WHITELIST"); wl != nil {
		c.RateLimitWhitelist = wl
	}
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}

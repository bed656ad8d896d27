package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	GinMode    string `yaml:"ginMode"`

	// DefaultDatabase is used when a request leaves the database name empty.
	DefaultDatabase string        `yaml:"defaultDatabase"`
	ConnectTimeout  time.Duration `yaml:"connectTimeout"`
	RunsLimit       int           `yaml:"runsLimit"`
	MetricsLimit    int           `yaml:"metricsLimit"`

	EnableMetrics bool `yaml:"enableMetrics"`

	LogLevel    string `yaml:"logLevel"`
	LogEncoding string `yaml:"logEncoding"` // json|console
}

const (
	DefaultListenAddr     = ":8050"
	DefaultDatabaseName   = "sacred"
	DefaultConnectTimeout = 5 * time.Second
	DefaultRunsLimit      = 500
	DefaultMetricsLimit   = 1000
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ListenAddr:      DefaultListenAddr,
		DefaultDatabase: DefaultDatabaseName,
		ConnectTimeout:  DefaultConnectTimeout,
		RunsLimit:       DefaultRunsLimit,
		MetricsLimit:    DefaultMetricsLimit,
		EnableMetrics:   true,
		LogLevel:        "info",
		LogEncoding:     "json",
	}
}

// Load builds the configuration: defaults, then the YAML file (if any),
// then a .env file (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	configPath := getEnv("SACREDVIEW_CONFIG_FILE", "config.yml")
	if st, err := os.Stat(configPath); err == nil && !st.IsDir() {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	// .env never overrides variables already present in the environment
	envFile := getEnv("SACREDVIEW_ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultDatabase) == "" {
		return fmt.Errorf("default database name must not be empty")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.RunsLimit <= 0 {
		return fmt.Errorf("runs limit must be positive, got %d", c.RunsLimit)
	}
	if c.MetricsLimit <= 0 {
		return fmt.Errorf("metrics limit must be positive, got %d", c.MetricsLimit)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setStr := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setInt := func(env string, dst *int) error {
		if v := os.Getenv(env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", env, v, err)
			}
			*dst = n
		}
		return nil
	}
	setBool := func(env string, dst *bool) error {
		if v := os.Getenv(env); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", env, v, err)
			}
			*dst = b
		}
		return nil
	}
	setDuration := func(env string, dst *time.Duration) error {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", env, v, err)
			}
			*dst = d
		}
		return nil
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}
	setStr("SACREDVIEW_LISTEN_ADDR", &cfg.ListenAddr)
	setStr("GIN_MODE", &cfg.GinMode)
	setStr("SACRED_DB_NAME", &cfg.DefaultDatabase)
	setStr("LOG_LEVEL", &cfg.LogLevel)
	setStr("LOG_ENCODING", &cfg.LogEncoding)

	for _, err := range []error{
		setDuration("SACREDVIEW_CONNECT_TIMEOUT", &cfg.ConnectTimeout),
		setInt("SACREDVIEW_RUNS_LIMIT", &cfg.RunsLimit),
		setInt("SACREDVIEW_METRICS_LIMIT", &cfg.MetricsLimit),
		setBool("SACREDVIEW_ENABLE_METRICS", &cfg.EnableMetrics),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Package config loads nexus settings from defaults, an optional YAML file
// and NEXUS_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/spektr-org/nexus/datasource"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/validation"
)

// DefaultConfigPaths are searched in order when NEXUS_CONFIG is unset.
var DefaultConfigPaths = []string{
	"nexus.yaml",
	"nexus.yml",
	"/etc/nexus/config.yaml",
	"/etc/nexus/config.yml",
}

const (
	// ConfigPathEnvVar names an explicit config file.
	ConfigPathEnvVar = "NEXUS_CONFIG"
	// EnvPrefix is stripped from environment keys. A double underscore
	// separates nesting levels: NEXUS_SERVER__PORT -> server.port.
	EnvPrefix = "NEXUS_"
)

// Config is the full process configuration.
type Config struct {
	Server      ServerConfig        `koanf:"server"`
	Logging     logging.Config      `koanf:"logging"`
	Query       QueryConfig         `koanf:"query"`
	Datasources []datasource.Config `koanf:"datasources" validate:"dive"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gte=0"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// QueryConfig controls datasource query execution.
type QueryConfig struct {
	Timeout            time.Duration `koanf:"timeout"`
	MaxRows            int           `koanf:"max_rows" validate:"gte=0"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// Settings converts the section for datasource.NewRegistry.
func (q QueryConfig) Settings() datasource.Settings {
	return datasource.Settings{
		QueryTimeout:       q.Timeout,
		MaxRows:            q.MaxRows,
		BreakerMaxFailures: q.BreakerMaxFailures,
		BreakerOpenTimeout: q.BreakerOpenTimeout,
	}
}

func defaultConfig() *Config {
	settings := datasource.DefaultSettings()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8085,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    10 << 20, // 10MB
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Query: QueryConfig{
			Timeout:            settings.QueryTimeout,
			MaxRows:            settings.MaxRows,
			BreakerMaxFailures: settings.BreakerMaxFailures,
			BreakerOpenTimeout: settings.BreakerOpenTimeout,
		},
	}
}

// Load builds the configuration from defaults, the config file found by
// findConfigFile and the environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns NEXUS_CONFIG when it exists, else the first default
// path that exists, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps NEXUS_QUERY__MAX_ROWS to query.max_rows. NEXUS_CONFIG
// itself is skipped.
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Query.Timeout <= 0 {
		return fmt.Errorf("query.timeout must be positive, got %s", c.Query.Timeout)
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is on")
	}
	seen := make(map[string]bool, len(c.Datasources))
	for _, ds := range c.Datasources {
		if seen[ds.ID] {
			return fmt.Errorf("duplicate datasource id %q", ds.ID)
		}
		seen[ds.ID] = true
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Poller  PollerConfig  `yaml:"poller"`
	Assess  AssessConfig  `yaml:"assess"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig describes the detection pipeline API the engine talks to.
type BackendConfig struct {
	BaseURL      string        `yaml:"base_url"`
	AuthEndpoint string        `yaml:"auth_endpoint"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	Timeout      time.Duration `yaml:"timeout"`
	AuthTimeout  time.Duration `yaml:"auth_timeout"`
}

type PollerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	RefreshOnStart bool          `yaml:"refresh_on_start"`
}

type AssessConfig struct {
	ErrorDisplayWindow time.Duration `yaml:"error_display_window"`
}

// RedisConfig is only consulted when the registry runs in shared mode;
// the default registry store is in-memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Keyspace string `yaml:"keyspace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Poller.Interval <= 0 {
		c.Poller.Interval = 5 * time.Second
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 60 * time.Second
	}
	if c.Backend.AuthTimeout <= 0 {
		c.Backend.AuthTimeout = 10 * time.Second
	}
	if c.Assess.ErrorDisplayWindow <= 0 {
		c.Assess.ErrorDisplayWindow = 5 * time.Second
	}
	if c.Redis.Keyspace == "" {
		c.Redis.Keyspace = "docsync:documents"
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

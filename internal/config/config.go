package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Audit    AuditConfig    `yaml:"audit"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// RateLimit is the number of mutating requests allowed per client IP per minute.
	RateLimit int `yaml:"rate_limit"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | postgres | redis
}

type AuditConfig struct {
	Driver     string `yaml:"driver"` // memory | postgres | sqlite
	Capacity   int    `yaml:"capacity"`
	SQLitePath string `yaml:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 3000, RateLimit: 120},
		Store:    StoreConfig{Driver: "memory"},
		Audit:    AuditConfig{Driver: "memory", Capacity: 1000, SQLitePath: "audit.db"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "hookah", Database: "hookah"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Redis:    RedisConfig{Addr: "localhost:6379", KeyPrefix: "hookah:"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies HOOKAH_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("HOOKAH_STORE_DRIVER", &cfg.Store.Driver)
	str("HOOKAH_AUDIT_DRIVER", &cfg.Audit.Driver)
	str("HOOKAH_AUDIT_SQLITE_PATH", &cfg.Audit.SQLitePath)
	str("HOOKAH_DB_HOST", &cfg.Database.Host)
	str("HOOKAH_DB_USER", &cfg.Database.User)
	str("HOOKAH_DB_PASSWORD", &cfg.Database.Password)
	str("HOOKAH_DB_NAME", &cfg.Database.Database)
	str("HOOKAH_RABBITMQ_HOST", &cfg.RabbitMQ.Host)
	str("HOOKAH_RABBITMQ_USER", &cfg.RabbitMQ.User)
	str("HOOKAH_RABBITMQ_PASSWORD", &cfg.RabbitMQ.Password)
	str("HOOKAH_REDIS_ADDR", &cfg.Redis.Addr)
	str("HOOKAH_REDIS_PASSWORD", &cfg.Redis.Password)
	str("HOOKAH_LOG_LEVEL", &cfg.Log.Level)

	for key, dst := range map[string]*int{
		"HOOKAH_PORT":           &cfg.Server.Port,
		"HOOKAH_DB_PORT":        &cfg.Database.Port,
		"HOOKAH_RABBITMQ_PORT":  &cfg.RabbitMQ.Port,
		"HOOKAH_AUDIT_CAPACITY": &cfg.Audit.Capacity,
		"HOOKAH_REDIS_DB":       &cfg.Redis.DB,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv("HOOKAH_RABBITMQ_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HOOKAH_RABBITMQ_ENABLED: %w", err)
		}
		cfg.RabbitMQ.Enabled = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case "memory", "postgres":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be memory, postgres or redis, got %q", c.Store.Driver)
	}
	switch c.Audit.Driver {
	case "memory", "postgres":
	case "sqlite":
		if c.Audit.SQLitePath == "" {
			return fmt.Errorf("audit.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("audit.driver must be memory, postgres or sqlite, got %q", c.Audit.Driver)
	}
	if c.Audit.Capacity < 1 {
		return fmt.Errorf("audit.capacity must be positive, got %d", c.Audit.Capacity)
	}
	return nil
}

// SharedStore reports whether sessions live outside the process, so that
// several processes see the same collection.
func (c *Config) SharedStore() bool {
	return c.Store.Driver == "postgres" || c.Store.Driver == "redis"
}

// UsesPostgres reports whether any component needs a database connection.
func (c *Config) UsesPostgres() bool {
	return c.Store.Driver == "postgres" || c.Audit.Driver == "postgres"
}

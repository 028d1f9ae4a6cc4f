package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rostra.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "ROSTRA_REST_ADDR")
	setString(&cfg.Server.CORSOrigin, "ROSTRA_CORS_ORIGIN")
	setString(&cfg.Realtime.Addr, "ROSTRA_REALTIME_ADDR")
	setInt64(&cfg.Realtime.MaxMessageBytes, "ROSTRA_WS_MAX_MESSAGE_BYTES")
	setDuration(&cfg.Realtime.WriteTimeout, "ROSTRA_WS_WRITE_TIMEOUT")
	setInt(&cfg.Realtime.FanoutLimit, "ROSTRA_WS_FANOUT_LIMIT")
	setInt(&cfg.Realtime.MaxAuthFailures, "ROSTRA_WS_MAX_AUTH_FAILURES")
	setString(&cfg.Gateway.Addr, "ROSTRA_GATEWAY_ADDR")
	setString(&cfg.Gateway.RESTBackend, "ROSTRA_GATEWAY_REST_BACKEND")
	setString(&cfg.Gateway.RealtimeBackend, "ROSTRA_GATEWAY_REALTIME_BACKEND")
	setInt(&cfg.Gateway.MaxHeaderBytes, "ROSTRA_GATEWAY_MAX_HEADER_BYTES")
	setDuration(&cfg.Gateway.DialTimeout, "ROSTRA_GATEWAY_DIAL_TIMEOUT")
	setDuration(&cfg.Gateway.IdleTimeout, "ROSTRA_GATEWAY_IDLE_TIMEOUT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ROSTRA_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ROSTRA_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ROSTRA_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ROSTRA_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ROSTRA_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "ROSTRA_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.SessionTTL, "ROSTRA_CACHE_SESSION_TTL")
	setInt(&cfg.Auth.BcryptCost, "ROSTRA_BCRYPT_COST")
	setDuration(&cfg.Auth.SessionExpiry, "ROSTRA_SESSION_EXPIRY")
	setString(&cfg.Logging.Level, "ROSTRA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ROSTRA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ROSTRA_LOG_ASYNC")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Realtime.Addr == "" {
		return errors.New("realtime.addr is required")
	}
	if cfg.Gateway.Addr == "" {
		return errors.New("gateway.addr is required")
	}
	if cfg.Gateway.RESTBackend == "" || cfg.Gateway.RealtimeBackend == "" {
		return errors.New("gateway backends are required")
	}
	if cfg.Gateway.MaxHeaderBytes < 512 {
		return errors.New("gateway.max_header_bytes must be >= 512")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Realtime.MaxMessageBytes < 1024 {
		return errors.New("realtime.max_message_bytes must be >= 1024")
	}
	if cfg.Realtime.FanoutLimit < 1 {
		return errors.New("realtime.fanout_limit must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

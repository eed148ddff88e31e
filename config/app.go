package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// GatewayKind selects the signing gateway implementation.
type GatewayKind string

const (
	// GatewayStorage signs through a storage service HTTP API.
	GatewayStorage GatewayKind = "storage"

	// GatewayLocal signs URLs locally with a shared secret (development and tests).
	GatewayLocal GatewayKind = "local"
)

// Environment variables overriding secrets of the yaml file.
const (
	EnvGatewayAPIKey = "ASHURL_GATEWAY_API_KEY"
	EnvGatewaySecret = "ASHURL_GATEWAY_SECRET"
	EnvDBDSN         = "ASHURL_DB_DSN"
)

// App is the configuration of the ashurl server binary.
type App struct {
	Cache   *Cache     `yaml:"cache"`
	Gateway GatewayCfg `yaml:"gateway"`
	Server  ServerCfg  `yaml:"server"`
	DB      DBCfg      `yaml:"db"`
	Logging LoggingCfg `yaml:"logging"`
}

type GatewayCfg struct {
	Kind GatewayKind `yaml:"kind"`

	// Endpoint is the storage API base, e.g. "https://project.example.co/storage/v1".
	// For the local gateway it is the base of the produced URLs.
	Endpoint string `yaml:"endpoint"`

	// Bucket holds the journal images.
	Bucket string `yaml:"bucket"`

	// APIKey authenticates against the storage API.
	APIKey string `yaml:"api_key"`

	// Secret is the HMAC key of the local gateway.
	Secret string `yaml:"secret"`

	// Timeout is enforced by the gateway client on every signing call. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

type ServerCfg struct {
	Addr string `yaml:"addr"`

	// UserID is the owner of the session: only their entries are loaded.
	UserID string `yaml:"user_id"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DBCfg struct {
	DSN string `yaml:"dsn"`
}

type LoggingCfg struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" (default) or "text".
	Format string `yaml:"format"`
}

// AdjustConfig fills defaults of the application and of the embedded cache config.
func (cfg *App) AdjustConfig() {
	if cfg.Cache == nil {
		cfg.Cache = Default()
	} else {
		cfg.Cache.AdjustConfig()
	}
	if cfg.Gateway.Kind == "" {
		cfg.Gateway.Kind = GatewayStorage
	}
	if cfg.Gateway.Bucket == "" {
		cfg.Gateway.Bucket = "journal-images"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = "journal.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// ApplyEnv overrides secrets with non-empty environment variables.
func (cfg *App) ApplyEnv() {
	if v := os.Getenv(EnvGatewayAPIKey); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv(EnvGatewaySecret); v != "" {
		cfg.Gateway.Secret = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		cfg.DB.DSN = v
	}
}

// Validate checks the fields required by the selected gateway.
func (cfg *App) Validate() error {
	switch cfg.Gateway.Kind {
	case GatewayStorage:
		if cfg.Gateway.Endpoint == "" {
			return fmt.Errorf("gateway.endpoint is required for %q gateway", cfg.Gateway.Kind)
		}
	case GatewayLocal:
		if cfg.Gateway.Secret == "" {
			return fmt.Errorf("gateway.secret (or %s) is required for %q gateway", EnvGatewaySecret, cfg.Gateway.Kind)
		}
	default:
		return fmt.Errorf("unknown gateway kind %q", cfg.Gateway.Kind)
	}
	if cfg.Server.UserID == "" {
		return fmt.Errorf("server.user_id is required")
	}
	return nil
}

// LoadApp reads the application config, applies environment overrides and defaults.
func LoadApp(path string) (*App, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &App{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.ApplyEnv()
	cfg.AdjustConfig()

	return cfg, nil
}

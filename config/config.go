package config

import (
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	AuthStrategyJWT    = "jwt"
	AuthStrategyStatic = "static"
)

type Config struct {
	Port           int    `koanf:"port"`
	CORSOrigin     string `koanf:"cors_origin"`
	TrustedProxies string `koanf:"trusted_proxies"`
	LogLevel       string `koanf:"log_level"`
	Env            string `koanf:"app_env"`

	DatabaseURL string `koanf:"database_url"`
	SeedOnStart bool   `koanf:"seed_on_start"`

	AuthStrategy    string        `koanf:"auth_strategy"`
	JWTSecret       string        `koanf:"jwt_secret"`
	JWTExpiresIn    time.Duration `koanf:"jwt_expires_in"`
	StaticAPIKey    string        `koanf:"static_api_key"`
	AdminPassword   string        `koanf:"admin_password"`
	ManagerPassword string        `koanf:"manager_password"`

	TracingEnabled bool `koanf:"tracing_enabled"`

	S3Bucket     string `koanf:"s3_bucket"`
	S3Region     string `koanf:"s3_region"`
	S3Endpoint   string `koanf:"s3_endpoint"`
	ImageBaseURL string `koanf:"image_base_url"`
}

var defaults = map[string]interface{}{
	"port":            3000,
	"cors_origin":     "*",
	"trusted_proxies": "",
	"log_level":       "info",
	"app_env":         "production",
	"database_url":    "sqlite://mandacafe.db",
	"seed_on_start":   false,
	"auth_strategy":   AuthStrategyJWT,
	"jwt_expires_in":  "24h",
	"tracing_enabled": false,
}

// Account passwords used only when running in development without overrides.
const (
	devAdminPassword   = "admin123"
	devManagerPassword = "gerente123"
)

// Load reads .env (if present), then the optional YAML file at path, then the
// process environment. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, errors.Wrapf(err, "failed to set default %s", key)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	cfg.AuthStrategy = strings.ToLower(strings.TrimSpace(cfg.AuthStrategy))
	if cfg.IsDevelopment() {
		if cfg.AdminPassword == "" {
			cfg.AdminPassword = devAdminPassword
		}
		if cfg.ManagerPassword == "" {
			cfg.ManagerPassword = devManagerPassword
		}
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// TrustedProxyList splits TRUSTED_PROXIES (comma separated IPs or CIDRs).
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	switch c.AuthStrategy {
	case AuthStrategyJWT:
		if c.JWTSecret == "" && !c.IsDevelopment() {
			return errors.New("jwt_secret is required for the jwt auth strategy")
		}
		if c.JWTExpiresIn <= 0 {
			return errors.New("jwt_expires_in must be positive")
		}
	case AuthStrategyStatic:
	default:
		return errors.Errorf("unknown auth_strategy %q", c.AuthStrategy)
	}
	if !c.IsDevelopment() {
		if c.AdminPassword == "" {
			return errors.New("admin_password is required outside development")
		}
		if c.ManagerPassword == "" {
			return errors.New("manager_password is required outside development")
		}
	}
	for _, p := range c.TrustedProxyList() {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return errors.Errorf("invalid trusted proxy %q", p)
		}
	}
	return nil
}

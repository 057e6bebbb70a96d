package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session       SessionConfig
	Collaborators CollaboratorConfig
	Dashboard     DashboardConfig
	Audit         AuditConfig

	Mongo MongoConfig
	Redis RedisConfig
}

type SessionConfig struct {
	Secret           string        `env:"SESSION_SECRET"`
	TTL              time.Duration `env:"SESSION_TTL,       default=8h"`
	CookieSecure     bool          `env:"COOKIE_SECURE,     default=false"`
	JWTSecret        string        `env:"AUTH_JWT_SECRET"`
	RehydrateTimeout time.Duration `env:"REHYDRATE_TIMEOUT, default=2s"`
	JanitorInterval  time.Duration `env:"SESSION_JANITOR,   default=1m"`
}

type CollaboratorConfig struct {
	AuthURL   string        `env:"AUTH_SERVICE_URL,     default=http://localhost:5001"`
	PolicyURL string        `env:"POLICY_SERVICE_URL,   default=http://localhost:5002"`
	ClaimsURL string        `env:"CLAIMS_SERVICE_URL,   default=http://localhost:5003"`
	Timeout   time.Duration `env:"COLLABORATOR_TIMEOUT, default=10s"`
}

type DashboardConfig struct {
	Refresh         time.Duration `env:"DASHBOARD_REFRESH, default=30s"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL, default=5m"`
}

type AuditConfig struct {
	Workers   int           `env:"AUDIT_WORKERS,   default=4"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=2160h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=insurance_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// devSessionSecret is only accepted when ENV=development.
const devSessionSecret = "insecure-development-session-secret"

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Session.Secret == "" && cfg.IsDevelopment() {
		cfg.Session.Secret = devSessionSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the process runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects settings the portal cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required outside development"))
	} else if !c.IsDevelopment() && len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	for name, raw := range map[string]string{
		"AUTH_SERVICE_URL":   c.Collaborators.AuthURL,
		"POLICY_SERVICE_URL": c.Collaborators.PolicyURL,
		"CLAIMS_SERVICE_URL": c.Collaborators.ClaimsURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.Audit.Workers < 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SERENE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SERENE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	JWT         JWTConfig
	SMTP        SMTPConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// JWTConfig controls access token signing.
type JWTConfig struct {
	Secret string        `usage:"HS256 signing secret (SERENE_JWT_SECRET)" flag:"jwt-secret"`
	TTL    time.Duration `default:"24h" usage:"Access token lifetime" flag:"jwt-ttl"`
}

// SMTPConfig controls OTP email delivery. An empty host falls back to a
// log-only mailer.
type SMTPConfig struct {
	Host     string `usage:"SMTP relay host; empty logs codes instead of sending" flag:"smtp-host"`
	Port     int    `default:"587" usage:"SMTP relay port" flag:"smtp-port"`
	Username string `usage:"SMTP username" flag:"smtp-username"`
	Password string `usage:"SMTP password" flag:"smtp-password"`
	From     string `default:"no-reply@sereneleaf.example" usage:"From address for OTP email" flag:"smtp-from"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SERENE",
		Files:     []string{"config.yaml", "/etc/sereneleaf/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SERENE_DATABASE_URL or DATABASE_URL")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT secret is required: set SERENE_JWT_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the SERENE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "EVIDENCE"

// Config carries every tunable of the service. It is built once in main and
// passed to constructors.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090"`

	// PGDSN selects PostgreSQL persistence; empty keeps everything in memory.
	PGDSN string `envconfig:"PG_DSN"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"evidence-api"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`

	MaxBodyBytes int64    `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`

	// BootstrapAdminEmail, when set, makes the API ensure an Admin account
	// with these credentials exists at startup.
	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `envconfig:"BOOTSTRAP_ADMIN_NAME" default:"Administrator"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("config: %s_JWT_SECRET must not be blank", envPrefix)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: %s_JWT_TTL must be positive", envPrefix)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: %s_MAX_BODY_BYTES must be positive", envPrefix)
	}
	if strings.TrimSpace(c.BootstrapAdminEmail) != "" && c.BootstrapAdminPassword == "" {
		return fmt.Errorf("config: %s_BOOTSTRAP_ADMIN_PASSWORD is required with %s_BOOTSTRAP_ADMIN_EMAIL", envPrefix, envPrefix)
	}
	return nil
}

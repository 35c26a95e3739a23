package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string `env:"PORT" env-default:"8080"`
	Env  string `env:"ENV" env-default:"development"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`

	// Redis
	RedisURL string        `env:"REDIS_URL" env-required:"true"`
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"10m"`

	// JWT
	JWTSecret     string        `env:"JWT_SECRET" env-required:"true"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" env-default:"24h"`

	// Admin bootstrap (both must be set to take effect)
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Frontend
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:5173"`
}

// ClientConfig drives the command line client.
type ClientConfig struct {
	APIURL    string        `env:"EDIS_API_URL" env-default:"http://localhost:8080/api"`
	TokenFile string        `env:"EDIS_TOKEN_FILE"`
	Timeout   time.Duration `env:"EDIS_TIMEOUT" env-default:"15s"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic(fmt.Sprintf("invalid server configuration: %v", err))
	}

	return &cfg
}

func LoadClient() (*ClientConfig, error) {
	godotenv.Load()

	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return &cfg, nil
}

// HasAdmin reports whether the admin bootstrap credentials are configured.
func (c *Config) HasAdmin() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

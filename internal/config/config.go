package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Quotes        QuotesConfig        `toml:"quotes"`
	Consolidation ConsolidationConfig `toml:"consolidation"`
	Logging       LoggingConfig       `toml:"logging"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL      string `toml:"url"` // takes precedence over the individual fields
	User     string `toml:"user"`
	Password string `toml:"password"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Name     string `toml:"name"`
	MaxConns int32  `toml:"max_conns"`
}

// ConnString builds the pgx connection string.
func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	return u.String()
}

type QuotesConfig struct {
	BaseURL   string `toml:"base_url"`
	Token     string `toml:"token"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
	CacheTTL  string `toml:"cache_ttl"`
}

func (c QuotesConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

func (c QuotesConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 15*time.Minute)
}

type ConsolidationConfig struct {
	Schedule string `toml:"schedule"` // cron expression, empty disables the job
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Database: DatabaseConfig{
			User:     "postgres",
			Host:     "localhost",
			Port:     5432,
			Name:     "moneymine",
			MaxConns: 10,
		},
		Quotes: QuotesConfig{
			BaseURL:   "https://brapi.dev/api",
			RateLimit: 5,
			Timeout:   "10s",
			CacheTTL:  "15m",
		},
		Consolidation: ConsolidationConfig{
			Schedule: "@daily",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load applies, in order: defaults, each existing TOML file, the .env file if present,
// and environment variables.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("MONEYMINE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("MONEYMINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BRAPI_TOKEN"); v != "" {
		cfg.Quotes.Token = v
	}
	if v, ok := os.LookupEnv("MONEYMINE_CONSOLIDATION_SCHEDULE"); ok {
		cfg.Consolidation.Schedule = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

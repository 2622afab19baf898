// Package config собирает конфигурацию сервера: дефолты, затем
// переменные окружения, затем флаги командной строки.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the fedsim server.
type Config struct {
	// Addr - адрес и порт HTTP сервера
	Addr string
	// DatabasePath - путь к файлу SQLite
	DatabasePath string
	// JWTSecret - HMAC секрет для подписи access token-ов (HS256)
	JWTSecret string
	// AccessTokenTTL - время жизни access token
	AccessTokenTTL time.Duration
	// WorkerInterval - базовый интервал между раундами воркера-тренера
	WorkerInterval time.Duration
	// AuthRateLimit - лимит запросов на /register и /login в окно 5 минут
	AuthRateLimit int
	// DefaultRateLimit - лимит запросов на остальные пути в окно 1 минута
	DefaultRateLimit int
	// LogLevel - уровень логирования: debug, info, warn, error
	LogLevel string
	// ShowVersion - вывести версию и выйти
	ShowVersion bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: JWTSecret обязан быть переопределен вне разработки.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabasePath = "fedsim.db"
	c.JWTSecret = "dev-secret-change-me"
	c.AccessTokenTTL = 24 * time.Hour
	c.WorkerInterval = 2 * time.Second
	c.AuthRateLimit = 10
	c.DefaultRateLimit = 300
	c.LogLevel = "info"
}

// Load builds a Config by applying defaults, then environment
// variables, then command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.parseEnv()
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv накладывает значения из переменных окружения FEDSIM_*
func (c *Config) parseEnv() {
	if v := os.Getenv("FEDSIM_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("FEDSIM_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("FEDSIM_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("FEDSIM_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.AccessTokenTTL = d
		}
	}
	if v := os.Getenv("FEDSIM_WORKER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.WorkerInterval = d
		}
	}
	if v := os.Getenv("FEDSIM_AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AuthRateLimit = n
		}
	}
	if v := os.Getenv("FEDSIM_DEFAULT_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultRateLimit = n
		}
	}
	if v := os.Getenv("FEDSIM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// parseFlags накладывает значения из флагов командной строки
func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("fedsim-server", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "a", c.Addr, "address and port to run server")
	fs.StringVar(&c.DatabasePath, "d", c.DatabasePath, "path to SQLite database file")
	fs.StringVar(&c.JWTSecret, "s", c.JWTSecret, "JWT secret key")
	fs.DurationVar(&c.AccessTokenTTL, "t", c.AccessTokenTTL, "access token TTL")
	fs.DurationVar(&c.WorkerInterval, "i", c.WorkerInterval, "base interval between trainer rounds")
	fs.IntVar(&c.AuthRateLimit, "auth-rate-limit", c.AuthRateLimit, "request limit for /register and /login per 5 minutes")
	fs.IntVar(&c.DefaultRateLimit, "rate-limit", c.DefaultRateLimit, "request limit for other paths per minute")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.ShowVersion, "version", false, "Show version information")

	return fs.Parse(args)
}

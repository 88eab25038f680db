package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Flash storage backends.
const (
	FlashBackendRedis  = "redis"
	FlashBackendCookie = "cookie"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Roster   RosterConfig
	Flash    FlashConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	// StatementTimeoutMs and LockTimeoutMs become session settings; LockTimeoutMs also
	// bounds the wait for the hierarchy lock.
	StatementTimeoutMs int
	LockTimeoutMs      int
}

// RedisConfig holds Redis connection values. With Enabled false the candidate cache is
// off and flash messages must use the cookie backend.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string // json or console
}

// RosterConfig tunes the listing and the manager form.
type RosterConfig struct {
	PageSize              int
	CandidateCacheTTLSecs int
}

// FlashConfig controls how one-shot page messages are carried between requests.
type FlashConfig struct {
	Backend    string
	CookieName string
	TTLSeconds int
	Secure     bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	app := loadApp()
	redis, err := loadRedis()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App:      app,
		Postgres: loadPostgres(app.Name),
		Redis:    redis,
		Logger:   LoggerConfig{Level: getEnv("LOG_LEVEL", "info"), Format: strings.ToLower(getEnv("LOG_FORMAT", "json"))},
		Roster: RosterConfig{
			PageSize:              getEnvAsInt("ROSTER_PAGE_SIZE", 50),
			CandidateCacheTTLSecs: getEnvAsInt("CANDIDATE_CACHE_TTL_SECONDS", 300),
		},
		Flash: FlashConfig{
			Backend:    strings.ToLower(getEnv("FLASH_BACKEND", FlashBackendRedis)),
			CookieName: getEnv("FLASH_COOKIE_NAME", "roster_flash"),
			TTLSeconds: getEnvAsInt("FLASH_TTL_SECONDS", 300),
			Secure:     getEnvAsBool("FLASH_COOKIE_SECURE", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadApp() AppConfig {
	return AppConfig{
		Name:                  getEnv("APP_NAME", "employee-roster"),
		Env:                   getEnv("APP_ENV", "development"),
		Host:                  getEnv("APP_HOST", "0.0.0.0"),
		Port:                  getEnv("APP_PORT", "5000"),
		Version:               getEnv("APP_VERSION", "dev"),
		RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
	}
}

func loadPostgres(appName string) PostgresConfig {
	return PostgresConfig{
		DSN:                os.Getenv("POSTGRES_DSN"),
		ApplicationName:    getEnv("POSTGRES_APPLICATION_NAME", appName),
		MaxConns:           int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
		MinConns:           int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
		RunMigrations:      getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
		ConnMaxIdleSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
		ConnMaxLifeSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		StatementTimeoutMs: getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_MS", 5000),
		LockTimeoutMs:      getEnvAsInt("POSTGRES_LOCK_TIMEOUT_MS", 3000),
	}
}

func loadRedis() (RedisConfig, error) {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	return RedisConfig{
		Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func (c *Config) validate() error {
	if c.Roster.PageSize <= 0 {
		return fmt.Errorf("invalid ROSTER_PAGE_SIZE: %d", c.Roster.PageSize)
	}
	switch c.Flash.Backend {
	case FlashBackendRedis:
		if !c.Redis.Enabled {
			return errors.New("FLASH_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case FlashBackendCookie:
	default:
		return fmt.Errorf("invalid FLASH_BACKEND: %q", c.Flash.Backend)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// CandidateCacheTTL returns how long the manager drop-down stays cached.
func (r RosterConfig) CandidateCacheTTL() time.Duration {
	return seconds(r.CandidateCacheTTLSecs)
}

// TTL returns the lifetime of a pending flash message.
func (f FlashConfig) TTL() time.Duration {
	return seconds(f.TTLSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

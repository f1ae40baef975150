package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	Env  string `env:"ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"3000"`

	Database  Database
	Redis     Redis
	AMQP      AMQP
	VIP       VIP
	Wallet    Wallet
	RateLimit RateLimit

	JWTSecret   string `env:"JWT_SECRET" env-default:"your-secret-key"`
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
}

// Database holds the PostgreSQL connection and pool settings.
type Database struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            string        `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `env:"DB_NAME" env-default:"vipwallet"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" env-default:"30m"`
	LockTimeout     time.Duration `env:"DB_LOCK_TIMEOUT" env-default:"5s"`
}

// DSN builds the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// Redis holds the cache connection settings.
type Redis struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`

	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"5m"`
}

// AMQP holds the event broker settings. An empty URL disables publishing.
type AMQP struct {
	URL      string `env:"AMQP_URL" env-default:""`
	Exchange string `env:"AMQP_EXCHANGE" env-default:"vip.events"`
}

// VIP holds purchase orchestration settings.
type VIP struct {
	MaxConflictRetries int           `env:"VIP_MAX_CONFLICT_RETRIES" env-default:"2"`
	ProcessingTimeout  time.Duration `env:"VIP_PROCESSING_TIMEOUT" env-default:"30s"`
	IdempotencyTTL     time.Duration `env:"VIP_IDEMPOTENCY_TTL" env-default:"24h"`
}

// Wallet holds deposit limits. MaxDeposit is a decimal string; "0" disables the limit.
type Wallet struct {
	MaxDeposit        string        `env:"WALLET_MAX_DEPOSIT" env-default:"10000"`
	ProcessingTimeout time.Duration `env:"WALLET_PROCESSING_TIMEOUT" env-default:"30s"`
}

// RateLimit bounds requests per client IP on the /api group.
type RateLimit struct {
	Max    int           `env:"RATE_LIMIT_MAX" env-default:"60"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads .env (when present) and the process environment into a Config.
func Load() (*Config, error) {
	LoadEnv()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for main packages.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

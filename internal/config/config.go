package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DebugEnv turns on diagnostic mode when set to exactly "1".
const DebugEnv = "GRAB_A_TIME_DEBUG"

type Config struct {
	Port           string        `mapstructure:"PORT"`
	GRPCPort       string        `mapstructure:"GRPC_PORT"`
	GRPCWebPort    string        `mapstructure:"GRPC_WEB_PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	MigrationFile  string        `mapstructure:"MIGRATION_FILE"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	TrustedProxies []string      `mapstructure:"TRUSTED_PROXIES"`

	Debug bool `mapstructure:"-"`
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("GRPC_WEB_PORT", "8081")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATION_FILE", "db/migrations/001_init.sql")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("TRUSTED_PROXIES", "")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Debug = os.Getenv(DebugEnv) == "1"

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Package config loads runtime configuration from an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppName        = "authsvc"
	defaultAppEnv         = "development"
	defaultPort           = "3000"
	defaultLogLevel       = "info"
	defaultShutdownPeriod = 10 * time.Second
	defaultSessionTTL     = time.Hour
	defaultOTPTTL         = 5 * time.Minute
	defaultResetTokenTTL  = 15 * time.Minute
	defaultBcryptCost     = 10
	defaultPublicBaseURL  = "http://localhost:3000"
	defaultLoginRateLimit = 5

	minBcryptCost = 4
	maxBcryptCost = 31
)

// Config captures application runtime configuration.
type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DatabaseURL and RedisURL may be empty in development, in which case the
	// in-memory credential and challenge stores are used.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	OTPTTL        time.Duration `mapstructure:"OTP_TTL"`
	ResetTokenTTL time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	BcryptCost    int           `mapstructure:"BCRYPT_COST"`

	// PublicBaseURL prefixes the reset link delivered to users.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	// LoginRateLimit is the number of credential attempts allowed per account per minute.
	LoginRateLimit int `mapstructure:"LOGIN_RATE_LIMIT"`

	ShutdownPeriod time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load reads .env (if present) and then the environment. Environment variables
// override values from the file.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", defaultSessionTTL)
	v.SetDefault("OTP_TTL", defaultOTPTTL)
	v.SetDefault("RESET_TOKEN_TTL", defaultResetTokenTTL)
	v.SetDefault("BCRYPT_COST", defaultBcryptCost)
	v.SetDefault("PUBLIC_BASE_URL", defaultPublicBaseURL)
	v.SetDefault("LOGIN_RATE_LIMIT", defaultLoginRateLimit)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownPeriod)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set (run cmd/gensecret to create one)")
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost)
	}
	if c.SessionTTL <= 0 || c.OTPTTL <= 0 || c.ResetTokenTTL <= 0 {
		return errors.New("SESSION_TTL, OTP_TTL and RESET_TOKEN_TTL must be positive")
	}
	if !c.IsDevelopment() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.AppEnv)
		}
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the service runs in a local/dev environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	ListenAddr        string `envconfig:"LISTEN_ADDR" default:":8080"`
	ObservabilityAddr string `envconfig:"OBSERVABILITY_ADDR" default:":9090"`
	AppEnv            string `envconfig:"APP_ENV" default:"development"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	RateRulesFile    string        `envconfig:"RATE_RULES_FILE"`
	RateKeyHeader    string        `envconfig:"RATE_KEY_HEADER"`
	TrustXFF         bool          `envconfig:"TRUST_XFF" default:"false"`
	AddHeaders       bool          `envconfig:"ADD_RATELIMIT_HEADERS" default:"true"`
	RateCleanupEvery time.Duration `envconfig:"RATE_CLEANUP_EVERY" default:"2m"`

	ConcurrencyMax     int           `envconfig:"CONCURRENCY_MAX" default:"100"`
	ConcurrencyTimeout time.Duration `envconfig:"CONCURRENCY_TIMEOUT" default:"0s"`

	RateStatsEnabled       bool          `envconfig:"RATE_STATS_ENABLED" default:"false"`
	RateStatsRedisAddr     string        `envconfig:"RATE_STATS_REDIS_ADDR"`
	RateStatsRedisPassword string        `envconfig:"RATE_STATS_REDIS_PASSWORD"`
	RateStatsRedisDB       int           `envconfig:"RATE_STATS_REDIS_DB" default:"0"`
	RateStatsPrefix        string        `envconfig:"RATE_STATS_PREFIX" default:"ratelimit:stats"`
	RateStatsTTL           time.Duration `envconfig:"RATE_STATS_TTL" default:"24h"`
	RateStatsBucket        string        `envconfig:"RATE_STATS_BUCKET" default:"minute"`
	RateStatsTrackKeys     bool          `envconfig:"RATE_STATS_TRACK_KEYS" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func readConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, fmt.Errorf("load env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must have at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be > 0")
	}
	if c.RateStatsEnabled && strings.TrimSpace(c.RateStatsRedisAddr) == "" {
		return errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.RateCleanupEvery < 0 {
		return errors.New("RATE_CLEANUP_EVERY must be >= 0")
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	RateEnabled bool          `env:"RATE_ENABLED" envDefault:"true"`
	RateRPS     float64       `env:"RATE_RPS" envDefault:"10"`
	RateBurst   int           `env:"RATE_BURST" envDefault:"20"`
	KeyHeader   string        `env:"RATE_KEY_HEADER"`
	TrustProxy  bool          `env:"TRUST_XFF" envDefault:"false"`
	RetryAfter  time.Duration `env:"RETRY_AFTER" envDefault:"1s"`
	AddHeaders  bool          `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`

	// Vagas para POST/PUT/DELETE simultâneos; leituras não ocupam vaga. 0 desliga.
	WriteConcurrencyMax     int           `env:"WRITE_CONCURRENCY_MAX" envDefault:"100"`
	WriteConcurrencyTimeout time.Duration `env:"WRITE_CONCURRENCY_TIMEOUT" envDefault:"0s"`

	EventsRedisEnabled  bool          `env:"EVENTS_REDIS_ENABLED" envDefault:"false"`
	EventsRedisAddr     string        `env:"EVENTS_REDIS_ADDR"`
	EventsRedisPassword string        `env:"EVENTS_REDIS_PASSWORD"`
	EventsRedisDB       int           `env:"EVENTS_REDIS_DB" envDefault:"0"`
	EventsPrefix        string        `env:"EVENTS_PREFIX" envDefault:"users:events"`
	EventsTTL           time.Duration `env:"EVENTS_TTL" envDefault:"24h"`
	EventsTrackUsers    bool          `env:"EVENTS_TRACK_USERS" envDefault:"true"`
}

// loadDotEnv carrega o arquivo .env se existir; variáveis já definidas no
// ambiente têm precedência.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readConfig(opts env.Options) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.RateRPS <= 0 {
		return errors.New("RATE_RPS must be > 0")
	}
	if c.RateBurst <= 0 {
		return errors.New("RATE_BURST must be > 0")
	}
	if c.WriteConcurrencyMax < 0 {
		return errors.New("WRITE_CONCURRENCY_MAX must be >= 0")
	}
	if c.EventsRedisEnabled && strings.TrimSpace(c.EventsRedisAddr) == "" {
		return errors.New("EVENTS_REDIS_ADDR is required when EVENTS_REDIS_ENABLED=true")
	}
	return nil
}

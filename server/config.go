package main

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr      string        // SWAPDESK_HTTP_ADDR (default ":6000")
	DBPath        string        // SWAPDESK_DB_PATH (default "./swapdesk.db")
	SessionTTL    time.Duration // SWAPDESK_SESSION_TTL (0 = keep forever)
	SweepInterval time.Duration // SWAPDESK_SWEEP_INTERVAL (default 1m)
}

func LoadConfig() (*Config, error) {
	c := &Config{
		HTTPAddr: envOrDefault("SWAPDESK_HTTP_ADDR", ":6000"),
		DBPath:   envOrDefault("SWAPDESK_DB_PATH", "./swapdesk.db"),
	}

	ttl, err := durationEnv("SWAPDESK_SESSION_TTL", 0)
	if err != nil {
		return nil, err
	}
	c.SessionTTL = ttl

	interval, err := durationEnv("SWAPDESK_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	c.SweepInterval = interval

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

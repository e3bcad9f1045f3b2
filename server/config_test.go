package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.HTTPAddr)
	assert.Equal(t, "./swapdesk.db", cfg.DBPath)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SWAPDESK_HTTP_ADDR", ":7777")
	t.Setenv("SWAPDESK_DB_PATH", "/tmp/test.db")
	t.Setenv("SWAPDESK_SESSION_TTL", "24h")
	t.Setenv("SWAPDESK_SWEEP_INTERVAL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	t.Setenv("SWAPDESK_SESSION_TTL", "not-a-duration")
	_, err := LoadConfig()
	assert.Error(t, err)
}

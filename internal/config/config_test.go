package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/fasttrack.db", cfg.Database.Path)
	assert.Equal(t, 720, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 1, cfg.Timer.TickSeconds)
	assert.Equal(t, 16.0, cfg.Fasting.DefaultGoalHours)
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FASTTRACK_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("FASTTRACK_FASTING_DEFAULTGOALHOURS", "18")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 18.0, cfg.Fasting.DefaultGoalHours)
}

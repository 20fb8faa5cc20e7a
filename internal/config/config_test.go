package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTurnTimeoutIsTickPeriodPlusExtra(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.TickPeriod+cfg.TurnTimeoutExtra, cfg.TurnTimeout())
}

func TestLoadOverlaysEnvironmentOntoDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("FUEL_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.ServerPort)
	assert.False(t, cfg.FuelEnabled)
	assert.Equal(t, Default().ServerAddress, cfg.ServerAddress)
}

func TestLoadToleratesMissingEnvFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/.env")
	assert.NoError(t, err)
}

func TestLoadRespectsTickPeriodDuration(t *testing.T) {
	t.Setenv("TICK_PERIOD", "2500ms")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, cfg.TickPeriod)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/ws"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8083, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "all", cfg.BroadcastPolicy)
	assert.False(t, cfg.DebugRoutes)

	opts := cfg.HubOptions()
	assert.Equal(t, ws.PolicyAll, opts.Policy)
	assert.Equal(t, 10*time.Second, opts.SendTimeout)
	assert.Equal(t, 64, opts.SendBuffer)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", "file:test.db")
	t.Setenv("BROADCAST_POLICY", "participants")
	t.Setenv("WS_SEND_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ws.PolicyParticipants, cfg.HubOptions().Policy)
	assert.Equal(t, 2*time.Second, cfg.WSSendTimeout)
}

func TestValidate(t *testing.T) {
	base := Config{StorageDriver: StorageMemory, BroadcastPolicy: "all", TokenTTL: time.Hour}
	require.NoError(t, base.Validate())

	missingDSN := base
	missingDSN.StorageDriver = "postgres"
	assert.Error(t, missingDSN.Validate())

	badDriver := base
	badDriver.StorageDriver = "mongo"
	assert.Error(t, badDriver.Validate())

	badPolicy := base
	badPolicy.BroadcastPolicy = "some"
	assert.Error(t, badPolicy.Validate())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("localhost", cfg.RedisHost)
	req.Equal(uint16(6379), cfg.RedisPort)
	req.Equal(uint16(8085), cfg.HttpServerPort)
	req.Equal(64, cfg.LobbyNameMaxLen)
}

func TestLoadConfigFromEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("HTTP_SERVER_PORT", "9001")
	t.Setenv("LOBBY_NAME_MAX_LEN", "32")
	t.Setenv("JWT_SECRET", "super-secret")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(uint16(9001), cfg.HttpServerPort)
	req.Equal(32, cfg.LobbyNameMaxLen)
	req.Equal("super-secret", cfg.JwtSecret)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "80") // below the allowed range
	_, err := LoadConfig()
	require.Error(t, err)
}

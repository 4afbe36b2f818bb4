package redis

import (
	"context"
	"strconv"
	"testing"

	"account-ledger/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: mr.Host(), Port: port}
}

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), configFor(t, mr), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "ledger:ping", "ok", 0).Err())
	got, err := mr.Get("ledger:ping")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestNewClient_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr)
	mr.Close()

	client, err := NewClient(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "pinging redis")
}

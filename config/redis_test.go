package config

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConnectRedis_DisabledWithoutAddress(t *testing.T) {
	cfg := &Config{AppEnv: "production"}

	rdb, err := ConnectRedis(context.Background(), cfg, zerolog.Nop())
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestConnectRedis_SkippedInTestEnv(t *testing.T) {
	cfg := &Config{AppEnv: "test", RedisAddr: "localhost:6379"}

	rdb, err := ConnectRedis(context.Background(), cfg, zerolog.Nop())
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestConnectRedis_InvalidAddress(t *testing.T) {
	cfg := &Config{AppEnv: "production", RedisAddr: "invalid-address:99999"}

	rdb, err := ConnectRedis(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, rdb)
}

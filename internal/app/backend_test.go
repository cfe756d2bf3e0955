package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/anansi/internal/config"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/store/memory"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreBackend:        config.StoreMemory,
		RedisDT:             time.Second,
		RedisRT:             time.Second,
		RedisWT:             time.Second,
		RedisPoolSize:       2,
		RedisConnectTimeout: 2 * time.Second,
		RedisRetryInterval:  10 * time.Millisecond,
		RedisMaxWait:        50 * time.Millisecond,
		RedisPingTimeout:    time.Second,
		RedisWarnThreshold:  3,
		CacheTTL:            time.Minute,
	}
}

func TestOpenBackend_Memory(t *testing.T) {
	b, err := OpenBackend(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.Nil(t, b.Cache)
}

func TestOpenBackend_MemoryWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("anansi:bookmark:stale", "x"))

	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	b, err := OpenBackend(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Cache)
	assert.Same(t, b.Cache, b.Store)
	assert.False(t, mr.Exists("anansi:bookmark:stale"), "stale entries are flushed at startup")
	assert.NoError(t, b.Cache.PingCache(context.Background()))
}

func TestOpenBackend_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "sqlite"

	_, err := OpenBackend(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

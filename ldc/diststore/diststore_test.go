package diststore_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/lazycache/ldc"
	"github.com/vearutop/lazycache/ldc/diststore"
)

func TestStore_Key(t *testing.T) {
	s := diststore.New(nil, diststore.Config{Version: 3})

	k := s.Key("fares", "AMS-JFK")
	assert.True(t, strings.HasPrefix(k, "lc:3:fares:"), k)
	assert.Equal(t, k, s.Key("fares", "AMS-JFK"))
	assert.NotEqual(t, k, s.Key("fares", "AMS-LHR"))
	assert.NotEqual(t, k, s.Key("routes", "AMS-JFK"))
}

func TestStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})

	defer func() {
		assert.NoError(t, client.Close())
	}()

	s := diststore.New(client, diststore.Config{Prefix: "lctest", ScanCount: 1})

	require.NoError(t, s.Truncate(ctx, "fares"))
	require.NoError(t, s.Put(ctx, "fares", "k1", []byte("v1"), time.Minute))
	require.NoError(t, s.Put(ctx, "fares", "k2", []byte("v2"), 0))

	v, err := s.Get(ctx, "fares", "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v))

	require.NoError(t, s.Delete(ctx, "fares", "k1"))

	_, err = s.Get(ctx, "fares", "k1")
	assert.ErrorIs(t, err, ldc.ErrNotFound)

	require.NoError(t, s.Truncate(ctx, "fares"))

	_, err = s.Get(ctx, "fares", "k2")
	assert.ErrorIs(t, err, ldc.ErrNotFound)
}

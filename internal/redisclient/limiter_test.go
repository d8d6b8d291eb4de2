package redisclient_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/contentgate/internal/redisclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	c := redisclient.New(redisclient.Config{Addr: addr})
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	l := redisclient.NewLimiter(c, 2, time.Minute)
	key := "test:" + uuid.NewString()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should be allowed", i+1)
	}

	ok, retry, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	// other keys have their own window
	ok, _, err = l.Allow(ctx, key+":other")
	require.NoError(t, err)
	assert.True(t, ok)
}

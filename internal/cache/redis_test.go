package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNilCache_AlwaysMisses(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []int{1, 2}, time.Minute))

	var out []int
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, out)

	require.NoError(t, c.Delete(ctx, "k"))
}

func TestCache_Key(t *testing.T) {
	c := NewCache(nil, "chat:")
	require.Equal(t, "chat:ws:1:users", c.key("ws:1:users"))
}

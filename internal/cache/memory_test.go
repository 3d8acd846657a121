package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetTake(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("reg", 0)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	v, err = c.Take(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	_, err = c.Take(ctx, "k")
	require.True(t, IsNotFound(err))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0)
	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.True(t, IsNotFound(err))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)

	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
}

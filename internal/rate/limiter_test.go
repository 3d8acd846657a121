package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	r1, err := l.Allow(ctx, "1.2.3.4|/cb")
	require.NoError(t, err)
	require.True(t, r1.Allowed)
	require.EqualValues(t, 1, r1.Remaining)

	r2, _ := l.Allow(ctx, "1.2.3.4|/cb")
	require.True(t, r2.Allowed)
	require.EqualValues(t, 0, r2.Remaining)

	r3, _ := l.Allow(ctx, "1.2.3.4|/cb")
	require.False(t, r3.Allowed)
	require.Equal(t, 50*time.Second, r3.RetryAfter)

	other, _ := l.Allow(ctx, "5.6.7.8|/cb")
	require.True(t, other.Allowed)

	// siguiente ventana
	l.now = func() time.Time { return base.Add(time.Minute) }
	r4, _ := l.Allow(ctx, "1.2.3.4|/cb")
	require.True(t, r4.Allowed)
	require.EqualValues(t, 1, r4.CurrentHits)
}

func TestNewResult_RetryFallback(t *testing.T) {
	res := newResult(5, 1, -1, 30*time.Second)
	require.False(t, res.Allowed)
	require.Equal(t, 30*time.Second, res.RetryAfter)
}

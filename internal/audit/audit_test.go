package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

func TestLog_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.RequestID("rid-1")))

	Log(ctx, EventUserRegistered, logger.UserID(7), logger.Provider("Aol"))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, "audit", e.LoggerName)
	require.Equal(t, EventUserRegistered, e.Message)
	fields := e.ContextMap()
	require.Equal(t, "rid-1", fields["request_id"])
	require.EqualValues(t, 7, fields["user_id"])
	require.Equal(t, EventUserRegistered, fields["event"])
}

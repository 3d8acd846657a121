// Package audit emits account lifecycle events on a dedicated logger.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

const (
	EventUserRegistered       = "user.registered"
	EventRegistrationDeferred = "registration.deferred"
	EventRegistrationRejected = "registration.rejected"
)

// Log writes one audit event. request_id and the other request fields come
// from the logger stored in ctx.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}

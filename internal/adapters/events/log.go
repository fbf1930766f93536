package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/mes/internal/ctxutil"
	"github.com/example/mes/internal/ports/secondary"
)

// LogPublisher writes events to the log. It stands in for the broker when
// none is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

var _ secondary.EventPublisher = (*LogPublisher)(nil)

func (p *LogPublisher) Publish(ctx context.Context, event secondary.Event) error {
	fields := []zap.Field{
		zap.String("type", event.Type),
		zap.Int64("entity_id", event.EntityID),
		zap.Int64("actor_id", event.ActorID),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Any("data", event.Data),
	}
	if id := ctxutil.RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if caller, ok := ctxutil.CallerFromContext(ctx); ok {
		fields = append(fields, zap.String("caller", caller.Email), zap.String("caller_role", string(caller.Role)))
	}
	p.logger.Info("event", fields...)
	return nil
}

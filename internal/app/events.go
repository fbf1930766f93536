package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/ctxutil"
	"github.com/example/mes/internal/ports/secondary"
)

// eventSink publishes lifecycle events without letting delivery problems
// fail the request that produced them.
type eventSink struct {
	publisher secondary.EventPublisher
	logger    *zap.Logger
}

func newEventSink(publisher secondary.EventPublisher, logger *zap.Logger) eventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return eventSink{publisher: publisher, logger: logger}
}

func (s eventSink) emit(ctx context.Context, eventType string, entityID, actorID int64, at time.Time, data map[string]any) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, secondary.Event{
		Type:       eventType,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: at,
		Data:       data,
	})
	if err != nil {
		fields := []zap.Field{
			zap.String("event", eventType),
			zap.Int64("entity_id", entityID),
			zap.String("request_id", ctxutil.RequestIDFromContext(ctx)),
			zap.Error(err),
		}
		if caller, ok := ctxutil.CallerFromContext(ctx); ok {
			fields = append(fields, zap.String("caller", caller.Email))
		}
		s.logger.Warn("failed to publish event", fields...)
	}
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatkit/chat-backend/internal/events"
)

// AuthEventRecorder counts audit events.
type AuthEventRecorder interface {
	RecordAuthEvent(eventType string)
}

// AuditService writes authentication events to the log and metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   AuthEventRecorder
}

// NewAuditService creates the service. recorder may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder AuthEventRecorder) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to every authentication event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handleAuthEvent)
	}
}

func (a *AuditService) handleAuthEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp),
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	if event.Type == events.EventLoginFailed {
		a.logger.Warn("auth event", fields...)
	} else {
		a.logger.Info("auth event", fields...)
	}

	if a.recorder != nil {
		a.recorder.RecordAuthEvent(string(event.Type))
	}
	return nil
}

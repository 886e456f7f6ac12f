package worker

import (
	"go.uber.org/zap"

	"github.com/chatkit/chat-backend/internal/events"
	"github.com/chatkit/chat-backend/internal/service"
)

// StartAuditWorker attaches the audit trail to dispatcher so every
// authentication event is logged and counted. It returns nil when there is
// no dispatcher to listen on.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, recorder service.AuthEventRecorder) *service.AuditService {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	audit := service.NewAuditService(dispatcher, logger, recorder)
	audit.RegisterHandlers()

	logger.Debug("audit worker started", zap.Int("event_types", len(events.AllEventTypes)))
	return audit
}

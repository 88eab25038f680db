package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/observability"
)

// ChangeNotifier reacts to hierarchy events.
type ChangeNotifier struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewChangeNotifier creates the notifier.
func NewChangeNotifier(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeNotifier{dispatcher: dispatcher, metrics: metrics, logger: logger.Named("roster.notifier")}
}

// RegisterHandlers subscribes to events.
func (n *ChangeNotifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventManagerChanged, n.handleManagerChanged)
}

func (n *ChangeNotifier) handleManagerChanged(_ context.Context, event events.Event) error {
	n.metrics.RecordManagerChange("changed")
	n.logger.Info("ManagerChanged",
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.Int64("employee_id", event.EmployeeID),
		zap.Any("payload", event.Payload),
	)
	return nil
}

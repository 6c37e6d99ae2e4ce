package audit

import (
	"context"

	"github.com/platinummonkey/storefront/pkg/observability"
)

// LogrusLogger writes audit events into the service log stream, tagged with
// log_type=audit so they can be split out downstream
type LogrusLogger struct {
	logger *observability.Logger
}

// NewLogrusLogger creates an audit logger on top of the service logger
func NewLogrusLogger(logger *observability.Logger) *LogrusLogger {
	return &LogrusLogger{logger: logger.WithField("log_type", "audit")}
}

// Log logs an audit event
func (l *LogrusLogger) Log(ctx context.Context, event *Event) error {
	fields := map[string]interface{}{
		"audit_id":   event.ID,
		"event_type": string(event.EventType),
		"status":     string(event.Status),
	}
	if event.Actor != "" {
		fields["actor"] = event.Actor
	}
	if event.TargetID != 0 {
		fields["target_id"] = event.TargetID
	}
	if event.TargetUsername != "" {
		fields["target_username"] = event.TargetUsername
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.logger.WithFields(fields)
	if event.Status == EventStatusSuccess {
		entry.Info(event.Message)
	} else {
		entry.Warn(event.Message)
	}
	return nil
}

// Close is a no-op; the service logger outlives the audit trail
func (l *LogrusLogger) Close() error {
	return nil
}

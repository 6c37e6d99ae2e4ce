package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/storefront/pkg/contextkeys"
)

// EventType represents the category of audit event
type EventType string

const (
	// Account events
	EventTypeAccountRegister    EventType = "account.register"
	EventTypeAccountLogin       EventType = "account.login"
	EventTypeAccountLoginFailed EventType = "account.login_failed"

	// Admin events
	EventTypeAdminPromote   EventType = "admin.promote"
	EventTypeAdminDemote    EventType = "admin.demote"
	EventTypeAdminBootstrap EventType = "admin.bootstrap"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor is the username that performed the action, empty for anonymous callers
	Actor string `json:"actor,omitempty"`

	TargetID       int64  `json:"target_id,omitempty"`
	TargetUsername string `json:"target_username,omitempty"`

	RequestID string `json:"request_id,omitempty"`

	Message      string                 `json:"message,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent creates an event stamped with a fresh ID, the current time and
// the request ID carried by ctx
func NewEvent(ctx context.Context, eventType EventType, status EventStatus) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		RequestID: contextkeys.GetRequestID(ctx),
	}
}

// WithError records err on the event and marks it failed unless it was denied
func (e *Event) WithError(err error) *Event {
	if err == nil {
		return e
	}
	e.ErrorMessage = err.Error()
	if e.Status == EventStatusSuccess {
		e.Status = EventStatusFailure
	}
	return e
}

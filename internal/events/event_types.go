package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventManagerChanged EventType = "manager_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	EmployeeID int64       `json:"employee_id"`
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ManagerChangedPayload payload.
type ManagerChangedPayload struct {
	OldManagerID *int64 `json:"old_manager_id,omitempty"`
	NewManagerID *int64 `json:"new_manager_id,omitempty"`
}

package models

import "time"

// Severity defines the user-facing weight of a notification.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeveritySuccess Severity = "SUCCESS"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// DefaultNotificationDuration is how long a notification lives when the
// producer does not set one.
const DefaultNotificationDuration = 5 * time.Second

// Notification is one ephemeral user-facing alert, optionally carrying a
// follow-up navigation action.
type Notification struct {
	ID           string        `json:"id"`
	Severity     Severity      `json:"severity"`
	Message      string        `json:"message"`
	Duration     time.Duration `json:"duration,omitempty"`
	ActionLabel  string        `json:"action_label,omitempty"`
	ActionTarget string        `json:"action_target,omitempty"`
}

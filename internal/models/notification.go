package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory tags a user-facing event for styling/priority.
type NotificationCategory string

const (
	NotificationInfo    NotificationCategory = "info"
	NotificationWarning NotificationCategory = "warning"
	NotificationSuccess NotificationCategory = "success"
	NotificationSpecial NotificationCategory = "special"
)

// Notification is an ephemeral user-facing event. Identity is always
// freshly generated; duplicate messages are allowed.
type Notification struct {
	ID        uuid.UUID            `json:"id"`
	Message   string               `json:"message"`
	Category  NotificationCategory `json:"category"`
	CreatedAt time.Time            `json:"created_at"`
}

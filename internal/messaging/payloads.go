package messaging

import (
	"github.com/google/uuid"

	"saga-server/internal/models"
)

// ClientUpdateType tells the realtime gateway what happened.
type ClientUpdateType string

const (
	ClientUpdateTurnCompleted ClientUpdateType = "turn_completed"
	ClientUpdateEntryPatched  ClientUpdateType = "entry_patched"
	ClientUpdateNotification  ClientUpdateType = "notification"
	ClientUpdateLegendCreated ClientUpdateType = "legend_created"
)

// ClientUpdatePayload is published to the client-updates queue. The
// websocket gateway consuming it lives outside this service.
type ClientUpdatePayload struct {
	SessionID uuid.UUID        `json:"session_id"`
	Type      ClientUpdateType `json:"type"`

	// For entry_patched
	EntryID *uuid.UUID         `json:"entry_id,omitempty"`
	Patch   *models.EntryPatch `json:"patch,omitempty"`

	// For notification
	Notification *models.Notification `json:"notification,omitempty"`

	// For legend_created
	LegendID *uuid.UUID `json:"legend_id,omitempty"`
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

type submitTurnRequest struct {
	Action string `json:"action" binding:"required"`
}

// turnStreamEvent is one NDJSON line of the turn stream. Fragment events
// carry the newly arrived text; the final event carries the full result.
type turnStreamEvent struct {
	Type          string                `json:"type"`
	Text          string                `json:"text,omitempty"`
	Narrative     string                `json:"narrative,omitempty"`
	Fallback      bool                  `json:"fallback,omitempty"`
	EntryID       string                `json:"entry_id,omitempty"`
	State         *models.GameState     `json:"state,omitempty"`
	Notifications []models.Notification `json:"notifications,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// submitTurn runs one turn and streams the narration as NDJSON: a
// "fragment" event per text delta, then one terminal "complete" or
// "error" event.
func (h *Handler) submitTurn(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	var req submitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(c.Writer)
	flush := func() {
		if flusher, ok := c.Writer.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	// The fragment callback reports accumulated text; only the new suffix
	// goes over the wire.
	sentLen := 0
	onFragment := func(accumulated string) {
		if len(accumulated) <= sentLen {
			return
		}
		delta := accumulated[sentLen:]
		sentLen = len(accumulated)
		if err := encoder.Encode(turnStreamEvent{Type: "fragment", Text: delta}); err != nil {
			h.logger.Debug("Client dropped turn stream", zap.Error(err))
			return
		}
		flush()
	}

	result, err := h.turns.SubmitTurn(c.Request.Context(), id, req.Action, onFragment)
	if err != nil {
		// Headers are already out; errors become a terminal stream event.
		if encErr := encoder.Encode(turnStreamEvent{Type: "error", Error: err.Error()}); encErr != nil {
			h.logger.Debug("Failed to write terminal error event", zap.Error(encErr))
		}
		flush()
		return
	}

	event := turnStreamEvent{
		Type:          "complete",
		Narrative:     result.Narrative,
		Fallback:      result.Fallback,
		EntryID:       result.EntryID.String(),
		State:         &result.State,
		Notifications: result.Notifications,
	}
	if err := encoder.Encode(event); err != nil {
		h.logger.Debug("Failed to write terminal complete event", zap.Error(err))
	}
	flush()
}

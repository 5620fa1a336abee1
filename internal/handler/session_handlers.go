package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/service"
)

type createSessionRequest struct {
	CharacterName  string `json:"character_name" binding:"required"`
	CharacterClass string `json:"character_class"`
	Scenario       string `json:"scenario"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	state, err := h.sessions.CreateSession(c.Request.Context(), service.CreateSessionRequest{
		CharacterName:  req.CharacterName,
		CharacterClass: req.CharacterClass,
		Scenario:       req.Scenario,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *Handler) getSession(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) endSession(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.sessions.EndSession(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) acceptSideQuest(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.sessions.AcceptSideQuest(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) rejectSideQuest(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.sessions.RejectSideQuest(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type resolveDiceRollRequest struct {
	Rolls []models.DiceRoll `json:"rolls" binding:"required"`
}

func (h *Handler) resolveDiceRoll(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	var req resolveDiceRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	state, err := h.sessions.ResolveDiceRoll(c.Request.Context(), id, req.Rolls)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) dismissCompanion(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	companionIDStr := c.Param("companionID")
	companionID, err := uuid.Parse(companionIDStr)
	if err != nil {
		h.logger.Warn("Invalid companion ID format", zap.String("id", companionIDStr))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid companion ID format"})
		return
	}

	state, err := h.sessions.DismissCompanion(c.Request.Context(), id, companionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type setAutoPlayVoiceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setAutoPlayVoice(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	var req setAutoPlayVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	state, err := h.sessions.SetAutoPlayVoice(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) listNotifications(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	notes, err := h.sessions.Notifications(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

func (h *Handler) dismissNotification(c *gin.Context) {
	id, ok := h.sessionIDParam(c)
	if !ok {
		return
	}

	notificationIDStr := c.Param("notificationID")
	notificationID, err := uuid.Parse(notificationIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid notification ID format"})
		return
	}

	if err := h.sessions.DismissNotification(c.Request.Context(), id, notificationID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

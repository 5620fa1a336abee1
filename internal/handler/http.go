package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
	"saga-server/internal/service"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// Handler serves the game API.
type Handler struct {
	sessions service.SessionService
	turns    service.TurnService
	legends  service.LegendService
	logger   *zap.Logger
}

func NewHandler(sessions service.SessionService, turns service.TurnService, legends service.LegendService, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		turns:    turns,
		legends:  legends,
		logger:   logger.Named("Handler"),
	}
}

// RegisterRoutes wires the API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.endSession)

		sessions.POST("/:id/turns", h.submitTurn)

		sessions.POST("/:id/side-quest/accept", h.acceptSideQuest)
		sessions.POST("/:id/side-quest/reject", h.rejectSideQuest)
		sessions.POST("/:id/dice-rolls", h.resolveDiceRoll)
		sessions.DELETE("/:id/companions/:companionID", h.dismissCompanion)
		sessions.PUT("/:id/voice", h.setAutoPlayVoice)

		sessions.GET("/:id/notifications", h.listNotifications)
		sessions.DELETE("/:id/notifications/:notificationID", h.dismissNotification)
	}

	legends := api.Group("/legends")
	{
		legends.GET("", h.listLegends)
		legends.GET("/:id", h.getLegend)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrLegendNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrTurnInProgress):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrSessionEnded):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrEmptyAction),
		errors.Is(err, models.ErrNoPendingDiceRoll),
		errors.Is(err, models.ErrNoSuggestedQuest),
		errors.Is(err, models.ErrCompanionNotFound),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	c.JSON(statusCode, apiErr)
}

// sessionIDParam parses the :id path parameter. A false return means the
// response has already been written.
func (h *Handler) sessionIDParam(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID format", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid session ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func parseLimitOffset(c *gin.Context, defaultLimit int) (limit, offset int, ok bool) {
	limit = defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, APIError{Message: "Invalid 'limit' parameter"})
			return 0, 0, false
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, APIError{Message: "Invalid 'offset' parameter"})
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

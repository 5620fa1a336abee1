package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) listLegends(c *gin.Context) {
	limit, offset, ok := parseLimitOffset(c, 20)
	if !ok {
		return
	}

	legends, err := h.legends.ListLegends(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"legends": legends})
}

func (h *Handler) getLegend(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid legend ID format"})
		return
	}

	legend, err := h.legends.GetLegend(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, legend)
}

package presence

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/service/presence"
)

type Handler struct {
	oracle presence.Oracle
}

func NewHandler(oracle presence.Oracle) *Handler {
	return &Handler{oracle: oracle}
}

type heartbeatRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Status string `json:"status" binding:"required,oneof=online away busy offline"`
}

func (h *Handler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid user ID"})
		return
	}

	if err := h.oracle.Heartbeat(c.Request.Context(), userID, model.PresenceStatus(req.Status)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/presence/heartbeat", h.Heartbeat)
}

package pushsub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/service/pushsub"
)

type Handler struct {
	service pushsub.Service
}

func NewHandler(service pushsub.Service) *Handler {
	return &Handler{service: service}
}

type subscribeRequest struct {
	UserID    string `json:"user_id" binding:"required,uuid"`
	Endpoint  string `json:"endpoint" binding:"required,url"`
	P256dhKey string `json:"p256dh_key" binding:"required"`
	AuthKey   string `json:"auth_key" binding:"required"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid user ID"})
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), &pushsub.SubscribeRequest{
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": sub})
}

type unsubscribeRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid user ID"})
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), userID, req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Cleanup(c *gin.Context) {
	swept, err := h.service.CleanupStale(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"deactivated": swept}})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/push-subscriptions", h.Subscribe)
	rg.DELETE("/push-subscriptions", h.Unsubscribe)
	rg.POST("/push-subscriptions/cleanup", h.Cleanup)
}

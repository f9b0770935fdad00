package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/service/notification"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	RecipientID    string                 `json:"recipient_id" binding:"required,uuid"`
	OrganizationID *string                `json:"organization_id" binding:"omitempty,uuid"`
	TeamID         *string                `json:"team_id" binding:"omitempty,uuid"`
	Type           string                 `json:"type" binding:"required"`
	Title          string                 `json:"title" binding:"required"`
	Message        string                 `json:"message" binding:"required"`
	ActionURL      *string                `json:"action_url"`
	ActionText     *string                `json:"action_text"`
	Priority       string                 `json:"priority" binding:"required,oneof=low medium high urgent"`
	Channels       []string               `json:"channels" binding:"required,min=1"`
	Metadata       map[string]interface{} `json:"metadata"`
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid recipient ID"})
		return
	}

	channels := make(model.Channels, len(req.Channels))
	for i, ch := range req.Channels {
		channels[i] = model.Channel(ch)
	}

	createReq := &notification.CreateRequest{
		RecipientID: recipientID,
		Type:        model.NotificationType(req.Type),
		Title:       req.Title,
		Message:     req.Message,
		ActionURL:   req.ActionURL,
		ActionText:  req.ActionText,
		Priority:    model.Priority(req.Priority),
		Channels:    channels,
		Metadata:    req.Metadata,
	}
	if req.OrganizationID != nil {
		id, err := uuid.Parse(*req.OrganizationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid organization ID"})
			return
		}
		createReq.OrganizationID = &id
	}
	if req.TeamID != nil {
		id, err := uuid.Parse(*req.TeamID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid team ID"})
			return
		}
		createReq.TeamID = &id
	}

	n, err := h.service.Create(c.Request.Context(), createReq)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": n})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications", h.CreateNotification)
}

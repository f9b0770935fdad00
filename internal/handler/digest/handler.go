package digest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamhub/notification-service/internal/service/digest"
)

type Handler struct {
	aggregator *digest.Aggregator
}

func NewHandler(aggregator *digest.Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// TriggerDigest runs one digest period on demand, outside the schedule.
func (h *Handler) TriggerDigest(c *gin.Context) {
	period := digest.Period(c.Param("period"))
	if period != digest.PeriodDaily && period != digest.PeriodWeekly {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "period must be daily or weekly"})
		return
	}

	report, err := h.aggregator.ProcessPendingDigests(c.Request.Context(), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": report})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/digests/:period/trigger", h.TriggerDigest)
}

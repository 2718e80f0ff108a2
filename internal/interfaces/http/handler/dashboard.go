package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appdashboard "github.com/merchdash/backend/internal/application/dashboard"
	"github.com/merchdash/backend/internal/infrastructure/logger"
)

// DashboardHandler serves aggregated dashboard metrics
type DashboardHandler struct {
	BaseHandler
	service *appdashboard.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *appdashboard.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/metrics", h.GetMetrics)
	}
}

// GetMetrics returns combined metrics over both sales channels
func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	var req appdashboard.MetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	metrics, err := h.service.GetMetrics(c.Request.Context(), req)
	if err != nil {
		logger.GetGinLogger(c).Warn("dashboard metrics aggregation failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, metrics)
}

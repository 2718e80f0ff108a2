package handler

import (
	"github.com/gin-gonic/gin"

	apptracking "github.com/merchdash/backend/internal/application/tracking"
	"github.com/merchdash/backend/internal/domain/order"
)

// TrackingHandler serves classified shipment timelines
type TrackingHandler struct {
	BaseHandler
	service *apptracking.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(service *apptracking.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RegisterRoutes registers tracking routes
func (h *TrackingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tracking := rg.Group("/tracking")
	{
		tracking.GET("/:waybill", h.GetTimeline)
	}
}

// GetTimeline returns the carrier timeline for a waybill. The waybill is
// validated before any carrier call is issued.
func (h *TrackingHandler) GetTimeline(c *gin.Context) {
	waybill, err := order.ValidateTrackingID(c.Param("waybill"))
	if err != nil || waybill == "" {
		h.BadRequest(c, "waybill must be 8-15 uppercase alphanumeric characters")
		return
	}

	resp, err := h.service.GetTimeline(c.Request.Context(), waybill)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/merchdash/backend/internal/application/order"
	"github.com/merchdash/backend/internal/domain/order"
	"github.com/merchdash/backend/internal/infrastructure/logger"
	"github.com/merchdash/backend/internal/interfaces/http/dto"
)

// OrderHandler serves normalized orders from both sales channels
type OrderHandler struct {
	BaseHandler
	service *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *apporder.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:source/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PATCH("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}

// ListOrders returns one order-list partition
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req apporder.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListOrders(c.Request.Context(), req)
	if err != nil {
		logger.GetGinLogger(c).Warn("order list fetch failed",
			zap.String("source", req.Source), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Orders, dto.Meta{
		Total:      resp.Total,
		Page:       resp.Page,
		PageSize:   resp.PerPage,
		TotalPages: resp.TotalPages,
		Version:    resp.Version,
	})
}

// GetOrder returns a single order looked up by its business order id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	source := order.Source(c.Param("source"))
	if !source.IsValid() {
		h.BadRequest(c, "source must be firebase or woocommerce")
		return
	}

	resp, err := h.service.GetOrder(c.Request.Context(), source, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// CreateOrder creates a new order in the Firebase origin store
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req apporder.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateOrder applies a partial update to a Firebase order
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req apporder.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.UpdateOrder(c.Request.Context(), c.Param("id"), req); err != nil {
		logger.GetGinLogger(c).Warn("order update failed",
			zap.String("order_id", c.Param("id")), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteOrder removes a Firebase order
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.service.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchdash/backend/internal/domain/order"
	"github.com/merchdash/backend/internal/domain/tracking"
	"github.com/merchdash/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key for request ID
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with list meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain errors to HTTP responses. The dashboard owns no
// data, so most failures surface as upstream (gateway) errors rather than
// internal ones.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var valErr *order.ValidationError
	if errors.As(err, &valErr) {
		h.ErrorWithCode(c, dto.ErrCodeValidation, valErr.Error())
		return
	}

	var nfErr *order.NotFoundError
	if errors.As(err, &nfErr) {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, nfErr.Error())
		return
	}

	var malformedErr *order.MalformedResponseError
	if errors.As(err, &malformedErr) {
		h.ErrorWithCode(c, dto.ErrCodeUpstreamMalformed, malformedErr.Error())
		return
	}

	var netErr *order.NetworkError
	if errors.As(err, &netErr) {
		if errors.Is(netErr.Err, context.DeadlineExceeded) {
			h.ErrorWithCode(c, dto.ErrCodeUpstreamTimeout, netErr.Error())
			return
		}
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, netErr.Error())
		return
	}

	switch {
	case errors.Is(err, order.ErrInvalidSource),
		errors.Is(err, order.ErrEmptyPatch),
		errors.Is(err, order.ErrInvalidTrackingID),
		errors.Is(err, order.ErrOrderWithoutProducts),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, tracking.ErrEmptyWaybill):
		h.ErrorWithCode(c, dto.ErrCodeBadRequest, err.Error())
	case errors.Is(err, tracking.ErrShipmentNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, tracking.ErrEmptyTimeline):
		h.ErrorWithCode(c, dto.ErrCodeEmptyTimeline, err.Error())
	case errors.Is(err, tracking.ErrCarrierInvalidResponse):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamMalformed, err.Error())
	case errors.Is(err, tracking.ErrCarrierUnavailable),
		errors.Is(err, tracking.ErrCarrierRequestFailed):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamTimeout, err.Error())
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}

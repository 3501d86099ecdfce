package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immo/backend/internal/infrastructure/logger"
	"github.com/immo/backend/internal/interfaces/http/dto"
	"github.com/immo/backend/internal/interfaces/http/middleware"
)

// dateLayout is the wire format of calendar dates
const dateLayout = "2006-01-02"

// IdempotencyKeyHeader carries the client key for payment submissions
const IdempotencyKeyHeader = "Idempotency-Key"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(code, message, requestID(c)))
}

// HandleError maps err to a status through its domain kind
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, resp := dto.FromError(err, requestID(c))
	_ = c.Error(err)
	c.JSON(status, resp)
}

// bindJSON binds and validates the body, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidID, "Invalid "+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

// parseDate parses a validated YYYY-MM-DD value; empty yields the zero time
func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDatePtr(value string) *time.Time {
	if value == "" {
		return nil
	}
	t := parseDate(value)
	return &t
}

// dateOrToday parses value, defaulting to today's date
func dateOrToday(value string) time.Time {
	if t := parseDate(value); !t.IsZero() {
		return t
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func optionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}

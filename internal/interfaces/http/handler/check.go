package handler

import (
	"github.com/gin-gonic/gin"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/interfaces/http/middleware"
)

// CheckHandler handles check endpoints
type CheckHandler struct {
	BaseHandler
	checks *appfinance.CheckService
}

// NewCheckHandler creates a new CheckHandler
func NewCheckHandler(checks *appfinance.CheckService) *CheckHandler {
	return &CheckHandler{checks: checks}
}

// RegisterRoutes registers the check routes under rg
func (h *CheckHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/checks")
	g.POST("", h.Issue)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/clear", h.Clear)
	g.POST("/:id/cancel", h.Cancel)
}

// Issue handles POST /checks
func (h *CheckHandler) Issue(c *gin.Context) {
	var req IssueCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq := appfinance.IssueCheckRequest{
		Details: *req.CheckBody.toDomain(),
		Type:    finance.CheckType(req.Type),
		Amount:  req.Amount,
	}
	if id := optionalUUID(req.SaleID); id != nil {
		ref := finance.SaleRef(*id)
		appReq.Parent = &ref
	} else if id := optionalUUID(req.ExpenseID); id != nil {
		ref := finance.ExpenseRef(*id)
		appReq.Parent = &ref
	}

	check, err := h.checks.Issue(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, check)
}

// Get handles GET /checks/:id
func (h *CheckHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.checks.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// List handles GET /checks
func (h *CheckHandler) List(c *gin.Context) {
	var q CheckListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter := appfinance.CheckListFilter{
		Status:     q.Status,
		Type:       q.Type,
		SaleID:     optionalUUID(q.SaleID),
		ExpenseID:  optionalUUID(q.ExpenseID),
		IssuerName: q.IssuerName,
		Page:       max(q.Page, 1),
		PageSize:   q.PageSize,
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	checks, total, err := h.checks.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, checks, total, filter.Page, filter.PageSize)
}

// Clear handles POST /checks/:id/clear
func (h *CheckHandler) Clear(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ClearCheckRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	check, err := h.checks.Clear(c.Request.Context(), id, dateOrToday(req.ClearingDate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Cancel handles POST /checks/:id/cancel. A check backing a payment leg
// voids that leg and the parent totals are recomputed.
func (h *CheckHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	check, err := h.checks.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/infrastructure/logger"
)

// PaymentHandler handles installment and payment endpoints. The same routes
// serve sales and expenses; the parent type comes from the route group.
type PaymentHandler struct {
	BaseHandler
	ledger *appfinance.LedgerService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(ledger *appfinance.LedgerService) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

// RegisterRoutes registers the payment routes of both parents under rg
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.register(rg.Group("/sales/:id"), finance.ParentTypeSale)
	h.register(rg.Group("/expenses/:id"), finance.ParentTypeExpense)
}

func (h *PaymentHandler) register(g *gin.RouterGroup, parentType finance.ParentType) {
	g.GET("/installments", h.withParent(parentType, h.ListInstallments))
	g.POST("/installments", h.withParent(parentType, h.CreateInstallment))
	g.POST("/payments", h.withParent(parentType, h.RecordAdHocPayment))
	g.POST("/installments/:iid/pay", h.withParent(parentType, h.RecordPayment))
	g.PUT("/installments/:iid/payment", h.withParent(parentType, h.EditPayment))
	g.POST("/installments/:iid/cancel", h.withParent(parentType, h.CancelPayment))
	g.POST("/overdue", h.withParent(parentType, h.MarkOverdue))
}

type parentHandler func(c *gin.Context, parent finance.ParentRef)

// withParent resolves the parent from the :id path parameter and tags the
// request context with it for logging
func (h *PaymentHandler) withParent(parentType finance.ParentType, next parentHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		parent := finance.ParentRef{Type: parentType, ID: id}
		ctx := logger.WithPaymentParent(c.Request.Context(), parent.String())
		c.Request = c.Request.WithContext(ctx)
		next(c, parent)
	}
}

func (h *PaymentHandler) installmentID(c *gin.Context) (uuid.UUID, bool) {
	return h.pathID(c, "iid")
}

// ListInstallments handles GET /{parent}/:id/installments
func (h *PaymentHandler) ListInstallments(c *gin.Context, parent finance.ParentRef) {
	rows, err := h.ledger.ListInstallments(c.Request.Context(), parent)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// CreateInstallment handles POST /{parent}/:id/installments
func (h *PaymentHandler) CreateInstallment(c *gin.Context, parent finance.ParentRef) {
	var req CreateInstallmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.ledger.CreateInstallment(c.Request.Context(), appfinance.CreateInstallmentRequest{
		Parent:        parent,
		SequenceNo:    req.SequenceNo,
		PlannedAmount: req.PlannedAmount,
		PlannedDate:   parseDate(req.PlannedDate),
		Description:   req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// RecordAdHocPayment handles POST /{parent}/:id/payments. The new row takes
// the next free sequence number.
func (h *PaymentHandler) RecordAdHocPayment(c *gin.Context, parent finance.ParentRef) {
	var req PaymentBody
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.ledger.RecordAdHocPayment(c.Request.Context(), appfinance.AdHocPaymentRequest{
		Parent:         parent,
		PaymentRequest: req.toApp(),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// RecordPayment handles POST /{parent}/:id/installments/:iid/pay
func (h *PaymentHandler) RecordPayment(c *gin.Context, parent finance.ParentRef) {
	iid, ok := h.installmentID(c)
	if !ok {
		return
	}
	var req PaymentBody
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.ledger.RecordPayment(c.Request.Context(), appfinance.RecordPaymentRequest{
		Parent:         parent,
		InstallmentID:  iid,
		PaymentRequest: req.toApp(),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// EditPayment handles PUT /{parent}/:id/installments/:iid/payment
func (h *PaymentHandler) EditPayment(c *gin.Context, parent finance.ParentRef) {
	iid, ok := h.installmentID(c)
	if !ok {
		return
	}
	var req PaymentBody
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.ledger.EditPayment(c.Request.Context(), appfinance.EditPaymentRequest{
		Parent:         parent,
		InstallmentID:  iid,
		PaymentRequest: req.toApp(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// CancelPayment handles POST /{parent}/:id/installments/:iid/cancel. The row
// is kept with status annule.
func (h *PaymentHandler) CancelPayment(c *gin.Context, parent finance.ParentRef) {
	iid, ok := h.installmentID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.ledger.CancelPayment(c.Request.Context(), appfinance.CancelPaymentRequest{
		Parent:        parent,
		InstallmentID: iid,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// MarkOverdue handles POST /{parent}/:id/overdue
func (h *PaymentHandler) MarkOverdue(c *gin.Context, parent finance.ParentRef) {
	var req MarkOverdueRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	marked, err := h.ledger.MarkOverdue(c.Request.Context(), parent, dateOrToday(req.AsOf))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marked": marked})
}

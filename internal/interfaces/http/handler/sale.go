package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
)

// SaleHandler handles sale and expense endpoints, the two payment parents
type SaleHandler struct {
	BaseHandler
	sales  *appfinance.SaleService
	ledger *appfinance.LedgerService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *appfinance.SaleService, ledger *appfinance.LedgerService) *SaleHandler {
	return &SaleHandler{sales: sales, ledger: ledger}
}

// RegisterRoutes registers the sale and expense routes under rg
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	sales.POST("", h.CreateSale)
	sales.GET("/:id", h.GetSale)
	sales.POST("/:id/cancel", h.CancelSale)

	expenses := rg.Group("/expenses")
	expenses.POST("", h.CreateExpense)
	expenses.GET("/:id", h.GetExpense)
}

// CreateSale handles POST /sales. An advance is recorded as installment #1
// in the same transaction as the sale.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.CreateSale(c.Request.Context(), req.toApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetSale handles GET /sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.ledger.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// CancelSale handles POST /sales/:id/cancel
func (h *SaleHandler) CancelSale(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.CancelSale(c.Request.Context(), appfinance.CancelSaleRequest{SaleID: id, Reason: req.Reason})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// CreateExpense handles POST /expenses
func (h *SaleHandler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.sales.CreateExpense(c.Request.Context(), appfinance.CreateExpenseRequest{
		ProjectID:    uuid.MustParse(req.ProjectID),
		Name:         req.Name,
		SupplierName: req.SupplierName,
		TotalAmount:  req.TotalAmount,
		Method:       finance.PaymentMethod(req.Method),
		ExpenseDate:  dateOrToday(req.ExpenseDate),
		Remark:       req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

// GetExpense handles GET /expenses/:id
func (h *SaleHandler) GetExpense(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	expense, err := h.ledger.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

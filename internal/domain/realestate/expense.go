package realestate

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Expense is a project cost paid to a supplier in one or more payments.
// The payment fields mirror montant_total_paye, montant_restant and
// statut_paiement and are only written through ApplyTotals.
type Expense struct {
	shared.BaseAggregateRoot
	ProjectID     uuid.UUID
	Name          string
	SupplierName  string
	TotalAmount   decimal.Decimal
	PaymentMethod finance.PaymentMethod
	ExpenseDate   time.Time
	Remark        string
	TotalPaid     decimal.Decimal
	Remaining     decimal.Decimal
	CashPaid      decimal.Decimal
	CheckPaid     decimal.Decimal
	PaymentStatus finance.PaymentStatus
}

// NewExpense creates an unpaid expense
func NewExpense(projectID uuid.UUID, name, supplierName string, totalAmount decimal.Decimal, method finance.PaymentMethod, expenseDate time.Time) (*Expense, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_EXPENSE_NAME", "Expense name cannot be empty")
	}
	if !totalAmount.IsPositive() || !valueobject.InMinorUnits(totalAmount) {
		return nil, shared.NewValidationError(finance.CodeInvalidAmount, "Expense amount must be a positive amount in centimes")
	}
	if method != "" && !method.IsValid() {
		return nil, shared.NewValidationError(finance.CodeInvalidPaymentMethod, "Payment method is not valid")
	}
	if expenseDate.IsZero() {
		expenseDate = time.Now()
	}

	e := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		Name:              name,
		SupplierName:      strings.TrimSpace(supplierName),
		TotalAmount:       totalAmount,
		PaymentMethod:     method,
		ExpenseDate:       expenseDate,
		TotalPaid:         decimal.Zero,
		Remaining:         totalAmount,
		CashPaid:          decimal.Zero,
		CheckPaid:         decimal.Zero,
		PaymentStatus:     finance.PaymentStatusUnpaid,
	}
	e.AddDomainEvent(NewExpenseCreatedEvent(e))
	return e, nil
}

// PaymentParent implements finance.Payable
func (e *Expense) PaymentParent() finance.ParentRef {
	return finance.ExpenseRef(e.ID)
}

// ContractualTotal implements finance.Payable
func (e *Expense) ContractualTotal() decimal.Decimal {
	return e.TotalAmount
}

// CurrentTotals implements finance.Payable
func (e *Expense) CurrentTotals() finance.Totals {
	return finance.Totals{
		TotalPaid: e.TotalPaid,
		Remaining: e.Remaining,
		CashPaid:  e.CashPaid,
		CheckPaid: e.CheckPaid,
		Status:    e.PaymentStatus,
	}
}

// CanAcceptPayments implements finance.Payable
func (e *Expense) CanAcceptPayments() error {
	return nil
}

// ApplyTotals implements finance.Payable
func (e *Expense) ApplyTotals(t finance.Totals) {
	e.TotalPaid = t.TotalPaid
	e.Remaining = t.Remaining
	e.CashPaid = t.CashPaid
	e.CheckPaid = t.CheckPaid
	e.PaymentStatus = t.Status
	e.Touch(time.Now())
}

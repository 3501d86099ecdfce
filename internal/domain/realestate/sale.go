package realestate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the commercial status of a sale
type SaleStatus string

const (
	SaleStatusInProgress SaleStatus = "en_cours"
	SaleStatusCompleted  SaleStatus = "termine"
	SaleStatusCancelled  SaleStatus = "annule"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusInProgress, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// IsActive returns true if the sale holds a unit of the project capacity
func (s SaleStatus) IsActive() bool {
	return s != SaleStatusCancelled
}

// Sale is the sale of one unit of a project to a client.
// TotalPaid, Remaining, CashPaid, CheckPaid and PaymentStatus are derived
// from the sale's installment rows and are only written through ApplyTotals.
type Sale struct {
	shared.BaseAggregateRoot
	ProjectID    uuid.UUID
	UnitCategory UnitCategory
	UnitNumber   string
	ClientName   string
	ClientPhone  string
	TotalPrice   decimal.Decimal
	SaleDate     time.Time
	// Advance is the breakdown of the down payment taken at signature. It is
	// also recorded as installment #1.
	AdvanceAmount decimal.Decimal
	Advance       finance.Split
	AdvanceMethod finance.PaymentMethod
	Status        SaleStatus
	TotalPaid     decimal.Decimal
	Remaining     decimal.Decimal
	CashPaid      decimal.Decimal
	CheckPaid     decimal.Decimal
	PaymentStatus finance.PaymentStatus
	Description   string
	CancelledAt   *time.Time
	CancelReason  string
}

// NewSale creates a sale in progress with nothing paid
func NewSale(projectID uuid.UUID, category UnitCategory, unitNumber, clientName string, totalPrice decimal.Decimal, saleDate time.Time) (*Sale, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewValidationError(CodeInvalidCategory, fmt.Sprintf("Unknown unit category %q", category))
	}
	unitNumber = strings.TrimSpace(unitNumber)
	if unitNumber == "" {
		return nil, shared.NewValidationError("INVALID_UNIT", "Unit number cannot be empty")
	}
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, shared.NewValidationError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if !totalPrice.IsPositive() || !valueobject.InMinorUnits(totalPrice) {
		return nil, shared.NewValidationError(finance.CodeInvalidAmount, "Total price must be a positive amount in centimes")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	s := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		UnitCategory:      category,
		UnitNumber:        unitNumber,
		ClientName:        clientName,
		TotalPrice:        totalPrice,
		SaleDate:          saleDate,
		AdvanceAmount:     decimal.Zero,
		Advance:           finance.Split{Declared: decimal.Zero, NonDeclared: decimal.Zero, Cash: decimal.Zero, Check: decimal.Zero},
		Status:            SaleStatusInProgress,
		TotalPaid:         decimal.Zero,
		Remaining:         totalPrice,
		CashPaid:          decimal.Zero,
		CheckPaid:         decimal.Zero,
		PaymentStatus:     finance.PaymentStatusUnpaid,
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return s, nil
}

// PaymentParent implements finance.Payable
func (s *Sale) PaymentParent() finance.ParentRef {
	return finance.SaleRef(s.ID)
}

// ContractualTotal implements finance.Payable
func (s *Sale) ContractualTotal() decimal.Decimal {
	return s.TotalPrice
}

// CurrentTotals implements finance.Payable
func (s *Sale) CurrentTotals() finance.Totals {
	return finance.Totals{
		TotalPaid: s.TotalPaid,
		Remaining: s.Remaining,
		CashPaid:  s.CashPaid,
		CheckPaid: s.CheckPaid,
		Status:    s.PaymentStatus,
	}
}

// CanAcceptPayments implements finance.Payable
func (s *Sale) CanAcceptPayments() error {
	if s.Status == SaleStatusCancelled {
		return shared.NewStateTransitionError(shared.CodeInvalidState, "Cannot take payments on a cancelled sale")
	}
	return nil
}

// ApplyTotals implements finance.Payable. A sale in progress completes once
// fully paid and reopens if a correction brings it back under the total.
func (s *Sale) ApplyTotals(t finance.Totals) {
	s.TotalPaid = t.TotalPaid
	s.Remaining = t.Remaining
	s.CashPaid = t.CashPaid
	s.CheckPaid = t.CheckPaid
	s.PaymentStatus = t.Status

	switch {
	case s.Status == SaleStatusInProgress && t.Status == finance.PaymentStatusPaid:
		s.Status = SaleStatusCompleted
	case s.Status == SaleStatusCompleted && t.Status != finance.PaymentStatusPaid:
		s.Status = SaleStatusInProgress
	}
	s.Touch(time.Now())
}

// SetAdvance records the breakdown of the down payment
func (s *Sale) SetAdvance(amount decimal.Decimal, split finance.Split, method finance.PaymentMethod) {
	s.AdvanceAmount = amount
	s.Advance = split
	s.AdvanceMethod = method
	s.UpdatedAt = time.Now()
}

// Cancel cancels the sale, freeing its unit. Payment rows are left as they are.
func (s *Sale) Cancel(reason string) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewStateTransitionError(shared.CodeInvalidTransition, "Sale is already cancelled")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.Touch(now)
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ParentType identifies which kind of entity owns a payment schedule
type ParentType string

const (
	ParentTypeSale    ParentType = "sale"
	ParentTypeExpense ParentType = "expense"
)

// IsValid checks if the parent type is valid
func (t ParentType) IsValid() bool {
	return t == ParentTypeSale || t == ParentTypeExpense
}

// ParentRef points at the Sale or Expense a payment row belongs to
type ParentRef struct {
	Type ParentType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

// SaleRef returns a reference to a sale
func SaleRef(id uuid.UUID) ParentRef {
	return ParentRef{Type: ParentTypeSale, ID: id}
}

// ExpenseRef returns a reference to an expense
func ExpenseRef(id uuid.UUID) ParentRef {
	return ParentRef{Type: ParentTypeExpense, ID: id}
}

func (p ParentRef) String() string {
	return fmt.Sprintf("%s:%s", p.Type, p.ID)
}

// InstallmentStatus represents the status of an installment row
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "en_attente"
	InstallmentStatusPaid      InstallmentStatus = "paye"
	InstallmentStatusOverdue   InstallmentStatus = "en_retard"
	InstallmentStatusCancelled InstallmentStatus = "annule"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusOverdue, InstallmentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// CanRecordPayment returns true if a payment can be recorded in this status
func (s InstallmentStatus) CanRecordPayment() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusOverdue
}

// InstallmentKind distinguishes planned schedule rows from one-off payments
type InstallmentKind string

const (
	InstallmentKindScheduled InstallmentKind = "scheduled"
	InstallmentKindAdHoc     InstallmentKind = "adhoc"
)

// Installment is one échéance of a sale or expense payment plan.
// Cancelled rows are kept for audit and contribute nothing to totals.
type Installment struct {
	shared.BaseEntity
	Parent        ParentRef
	SequenceNo    int
	Kind          InstallmentKind
	PlannedAmount decimal.Decimal
	PlannedDate   time.Time
	PaidAmount    decimal.Decimal
	Split
	Method      PaymentMethod
	PaymentDate *time.Time
	Description string
	Status      InstallmentStatus
	// CheckID is a weak reference to the check issued for the check leg.
	CheckID *uuid.UUID
	// CheckVoided is set once the linked check was cancelled; the check leg
	// then no longer counts toward totals.
	CheckVoided  bool
	CancelledAt  *time.Time
	CancelReason string
}

// NewInstallment creates a scheduled installment awaiting payment
func NewInstallment(parent ParentRef, sequenceNo int, plannedAmount decimal.Decimal, plannedDate time.Time, description string) (*Installment, error) {
	if !parent.Type.IsValid() || parent.ID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PARENT", "Installment parent is not valid")
	}
	if sequenceNo <= 0 {
		return nil, shared.NewValidationError(CodeInvalidSequence, "Sequence number must be positive")
	}
	if !plannedAmount.IsPositive() {
		return nil, shared.NewValidationError(CodeInvalidAmount, "Planned amount must be positive")
	}
	if !valueobject.InMinorUnits(plannedAmount) {
		return nil, shared.NewValidationError(CodeInvalidAmount, "Planned amount cannot have more than 2 decimal places")
	}

	return &Installment{
		BaseEntity:    shared.NewBaseEntity(),
		Parent:        parent,
		SequenceNo:    sequenceNo,
		Kind:          InstallmentKindScheduled,
		PlannedAmount: plannedAmount,
		PlannedDate:   plannedDate,
		PaidAmount:    decimal.Zero,
		Split:         Split{Declared: decimal.Zero, NonDeclared: decimal.Zero, Cash: decimal.Zero, Check: decimal.Zero},
		Description:   description,
		Status:        InstallmentStatusPending,
	}, nil
}

// IsActive returns true unless the installment was cancelled
func (i *Installment) IsActive() bool {
	return i.Status != InstallmentStatusCancelled
}

// Contribution is what this row adds to its parent's paid total
func (i *Installment) Contribution() decimal.Decimal {
	if !i.IsActive() {
		return decimal.Zero
	}
	if i.CheckVoided {
		return i.PaidAmount.Sub(i.Check)
	}
	return i.PaidAmount
}

// CheckContribution is the part of Contribution settled by check
func (i *Installment) CheckContribution() decimal.Decimal {
	if !i.IsActive() || i.CheckVoided {
		return decimal.Zero
	}
	return i.Check
}

// CashContribution is the part of Contribution settled with non-check funds
func (i *Installment) CashContribution() decimal.Decimal {
	if !i.IsActive() {
		return decimal.Zero
	}
	return i.Cash
}

// ValidateInvariants checks the row-level split invariants
func (i *Installment) ValidateInvariants() error {
	if !i.PaidAmount.IsPositive() {
		return nil
	}
	return i.Split.Validate(i.PaidAmount)
}

func (i *Installment) applyPayment(amount decimal.Decimal, split Split, method PaymentMethod, paidAt time.Time, description string) {
	i.PaidAmount = amount
	i.Split = split
	i.Method = method
	i.PaymentDate = &paidAt
	if description != "" {
		i.Description = description
	}
	i.Status = InstallmentStatusPaid
	i.UpdatedAt = time.Now()
}

func (i *Installment) cancel(reason string) {
	now := time.Now()
	i.Status = InstallmentStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.UpdatedAt = now
}

// LinkCheck records the check issued for this row's check leg
func (i *Installment) LinkCheck(checkID uuid.UUID) {
	i.CheckID = &checkID
	i.CheckVoided = false
	i.UpdatedAt = time.Now()
}

// VoidCheckLeg marks the linked check as cancelled so its leg stops counting
func (i *Installment) VoidCheckLeg() {
	i.CheckVoided = true
	i.UpdatedAt = time.Now()
}

// UnlinkCheck drops the weak reference to the check
func (i *Installment) UnlinkCheck() {
	i.CheckID = nil
	i.CheckVoided = false
	i.UpdatedAt = time.Now()
}

// IsOverdue reports whether an unpaid row is past its planned date
func (i *Installment) IsOverdue(asOf time.Time) bool {
	return i.Status == InstallmentStatusPending && i.PlannedDate.Before(asOf)
}

package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CheckStatus represents the lifecycle state of a check
type CheckStatus string

const (
	CheckStatusIssued    CheckStatus = "emis"
	CheckStatusCleared   CheckStatus = "encaisse"
	CheckStatusCancelled CheckStatus = "annule"
)

// IsValid checks if the status is a valid CheckStatus
func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckStatusIssued, CheckStatusCleared, CheckStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of CheckStatus
func (s CheckStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is allowed
func (s CheckStatus) IsTerminal() bool {
	return s == CheckStatusCleared || s == CheckStatusCancelled
}

// CheckType tells whether the company received or handed over the check
type CheckType string

const (
	CheckTypeReceived CheckType = "recu"
	CheckTypeGiven    CheckType = "donne"
)

// IsValid checks if the check type is valid
func (t CheckType) IsValid() bool {
	return t == CheckTypeReceived || t == CheckTypeGiven
}

// CheckTypeFor returns the check type implied by the parent: client checks
// are received on sales, supplier checks are given on expenses.
func CheckTypeFor(parent ParentType) CheckType {
	if parent == ParentTypeExpense {
		return CheckTypeGiven
	}
	return CheckTypeReceived
}

// CheckDetails is the paper information of a check supplied with a payment
type CheckDetails struct {
	Number               string     `json:"numero_cheque"`
	IssuerName           string     `json:"nom_emetteur"`
	BeneficiaryName      string     `json:"nom_beneficiaire"`
	IssueDate            time.Time  `json:"date_emission"`
	ExpectedClearingDate *time.Time `json:"date_encaissement,omitempty"`
}

// Check is an independent financial instrument. Its links to a sale, expense
// or installment are weak references used for lookup only.
type Check struct {
	shared.BaseAggregateRoot
	Number               string
	Type                 CheckType
	Amount               decimal.Decimal
	IssuerName           string
	BeneficiaryName      string
	IssueDate            time.Time
	ExpectedClearingDate *time.Time
	ClearingDate         *time.Time
	Status               CheckStatus
	SaleID               *uuid.UUID
	ExpenseID            *uuid.UUID
	InstallmentID        *uuid.UUID
	// LinkStale is set when the payment that produced the check was cancelled
	// after the check had already cleared.
	LinkStale    bool
	CancelledAt  *time.Time
	CancelReason string
}

// NewCheck creates an issued check
func NewCheck(details CheckDetails, checkType CheckType, amount decimal.Decimal) (*Check, error) {
	number := strings.TrimSpace(details.Number)
	if number == "" {
		return nil, shared.NewValidationError(CodeInvalidCheck, "Check number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewValidationError(CodeInvalidCheck, "Check number cannot exceed 50 characters")
	}
	if !checkType.IsValid() {
		return nil, shared.NewValidationError(CodeInvalidCheck, "Check type is not valid")
	}
	if !amount.IsPositive() || !valueobject.InMinorUnits(amount) {
		return nil, shared.NewValidationError(CodeInvalidAmount, "Check amount must be a positive amount in centimes")
	}
	if details.IssueDate.IsZero() {
		details.IssueDate = time.Now()
	}

	c := &Check{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Number:               number,
		Type:                 checkType,
		Amount:               amount,
		IssuerName:           strings.TrimSpace(details.IssuerName),
		BeneficiaryName:      strings.TrimSpace(details.BeneficiaryName),
		IssueDate:            details.IssueDate,
		ExpectedClearingDate: details.ExpectedClearingDate,
		Status:               CheckStatusIssued,
	}
	c.AddDomainEvent(NewCheckIssuedEvent(c))
	return c, nil
}

// LinkToParent sets the weak reference to a sale or expense
func (c *Check) LinkToParent(parent ParentRef) {
	id := parent.ID
	switch parent.Type {
	case ParentTypeSale:
		c.SaleID = &id
	case ParentTypeExpense:
		c.ExpenseID = &id
	}
	c.UpdatedAt = time.Now()
}

// LinkTo sets the weak references to the payment that produced the check
func (c *Check) LinkTo(parent ParentRef, installmentID uuid.UUID) {
	c.LinkToParent(parent)
	c.InstallmentID = &installmentID
}

// Parent returns the sale or expense reference, if any
func (c *Check) Parent() (ParentRef, bool) {
	switch {
	case c.SaleID != nil:
		return SaleRef(*c.SaleID), true
	case c.ExpenseID != nil:
		return ExpenseRef(*c.ExpenseID), true
	}
	return ParentRef{}, false
}

// Clear moves an issued check to encaisse
func (c *Check) Clear(clearingDate time.Time) error {
	if c.Status != CheckStatusIssued {
		return shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot clear check in %s status", c.Status))
	}
	if clearingDate.IsZero() {
		clearingDate = time.Now()
	}
	c.Status = CheckStatusCleared
	c.ClearingDate = &clearingDate
	c.Touch(time.Now())
	c.AddDomainEvent(NewCheckClearedEvent(c))
	return nil
}

// Cancel moves an issued check to annule
func (c *Check) Cancel(reason string) error {
	if c.Status != CheckStatusIssued {
		return shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot cancel check in %s status", c.Status))
	}

	now := time.Now()
	c.Status = CheckStatusCancelled
	c.CancelledAt = &now
	c.CancelReason = reason
	c.Touch(now)
	c.AddDomainEvent(NewCheckCancelledEvent(c))
	return nil
}

// Amend corrects the amount of an issued check. The paper check keeps its
// number, so this is how a mistyped amount is fixed.
func (c *Check) Amend(amount decimal.Decimal) error {
	if c.Status != CheckStatusIssued {
		return shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot amend check in %s status", c.Status))
	}
	if !amount.IsPositive() || !valueobject.InMinorUnits(amount) {
		return shared.NewValidationError(CodeInvalidAmount, "Check amount must be a positive amount in centimes")
	}
	if amount.Equal(c.Amount) {
		return nil
	}

	previous := c.Amount
	c.Amount = amount
	c.Touch(time.Now())
	c.AddDomainEvent(NewCheckAmendedEvent(c, previous))
	return nil
}

// SameInstrument reports whether details describe this paper check
func (c *Check) SameInstrument(details CheckDetails) bool {
	return strings.TrimSpace(details.Number) == c.Number &&
		strings.TrimSpace(details.IssuerName) == c.IssuerName
}

// MarkLinkStale flags the payment link as no longer backed by an active payment
func (c *Check) MarkLinkStale() {
	c.LinkStale = true
	c.Touch(time.Now())
}

// CountsTowardTotals reports whether the check may count toward paid totals
func (c *Check) CountsTowardTotals() bool {
	return c.Status != CheckStatusCancelled
}

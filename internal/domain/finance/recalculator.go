package finance

import (
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the derived payment state of a sale or expense
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "non_paye"
	PaymentStatusPartial PaymentStatus = "partiellement_paye"
	PaymentStatusPaid    PaymentStatus = "paye"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPartial || s == PaymentStatusPaid
}

// Totals are the figures a parent stores about its payment rows
type Totals struct {
	TotalPaid decimal.Decimal `json:"total_paid"`
	Remaining decimal.Decimal `json:"remaining"`
	CashPaid  decimal.Decimal `json:"cash_paid"`
	CheckPaid decimal.Decimal `json:"check_paid"`
	Status    PaymentStatus   `json:"payment_status"`
}

// Payable is a sale or expense whose derived totals follow its payment rows
type Payable interface {
	PaymentParent() ParentRef
	ContractualTotal() decimal.Decimal
	// CurrentTotals returns the totals last applied
	CurrentTotals() Totals
	// CanAcceptPayments returns an error when the parent is closed to new payments
	CanAcceptPayments() error
	ApplyTotals(t Totals)
	GetVersion() int
}

// Recalculate derives a parent's totals from its payment rows.
// It reads only the rows given, so running it twice over the same rows, in
// any order, yields the same Totals.
func Recalculate(contractualTotal decimal.Decimal, rows []Installment) Totals {
	paid, cash, check := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range rows {
		row := &rows[i]
		if !row.IsActive() {
			continue
		}
		paid = paid.Add(row.Contribution())
		cash = cash.Add(row.CashContribution())
		check = check.Add(row.CheckContribution())
	}

	return Totals{
		TotalPaid: paid,
		Remaining: contractualTotal.Sub(paid),
		CashPaid:  cash,
		CheckPaid: check,
		Status:    DerivePaymentStatus(contractualTotal, paid),
	}
}

// DerivePaymentStatus maps a paid amount against the contractual total
func DerivePaymentStatus(contractualTotal, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.IsZero():
		return PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(contractualTotal) || valueobject.AmountsMatch(paid, contractualTotal):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// RecalculateInto recomputes totals for parent and applies them
func RecalculateInto(parent Payable, rows []Installment) Totals {
	totals := Recalculate(parent.ContractualTotal(), rows)
	parent.ApplyTotals(totals)
	return totals
}

package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentInput is a payment as submitted for an installment
type PaymentInput struct {
	Amount      decimal.Decimal
	Method      PaymentMethod
	Split       SplitInput
	PaymentDate time.Time
	Description string
}

// Ledger holds every installment row of one sale or expense and enforces
// the rules that span rows: unique sequence numbers and the contractual
// total ceiling. Failed operations leave the ledger unchanged.
type Ledger struct {
	parent           ParentRef
	contractualTotal decimal.Decimal
	rows             []*Installment
	events           []shared.DomainEvent
}

// NewLedger builds a ledger over the parent's persisted rows
func NewLedger(parent ParentRef, contractualTotal decimal.Decimal, rows []Installment) *Ledger {
	l := &Ledger{
		parent:           parent,
		contractualTotal: contractualTotal,
		rows:             make([]*Installment, 0, len(rows)),
	}
	for i := range rows {
		row := rows[i]
		l.rows = append(l.rows, &row)
	}
	l.sort()
	return l
}

// Parent returns the owning sale or expense
func (l *Ledger) Parent() ParentRef {
	return l.parent
}

// ContractualTotal returns the ceiling for cumulative payments
func (l *Ledger) ContractualTotal() decimal.Decimal {
	return l.contractualTotal
}

// Installments returns a copy of the rows in ascending sequence order
func (l *Ledger) Installments() []Installment {
	out := make([]Installment, len(l.rows))
	for i, row := range l.rows {
		out[i] = *row
	}
	return out
}

// Find returns the row with the given id
func (l *Ledger) Find(id uuid.UUID) (*Installment, error) {
	for _, row := range l.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, ErrInstallmentNotFound
}

// FindByCheck returns the row linked to the given check
func (l *Ledger) FindByCheck(checkID uuid.UUID) (*Installment, bool) {
	for _, row := range l.rows {
		if row.CheckID != nil && *row.CheckID == checkID {
			return row, true
		}
	}
	return nil, false
}

// NextSequenceNo returns one past the highest sequence number in use
func (l *Ledger) NextSequenceNo() int {
	next := 1
	for _, row := range l.rows {
		if row.SequenceNo >= next {
			next = row.SequenceNo + 1
		}
	}
	return next
}

// TotalPaid sums the contributions of active rows
func (l *Ledger) TotalPaid() decimal.Decimal {
	return l.totalPaidExcluding(uuid.Nil)
}

// Totals recomputes the parent's derived figures from the current rows
func (l *Ledger) Totals() Totals {
	return Recalculate(l.contractualTotal, l.Installments())
}

// CreateInstallment adds a scheduled row. Sequence numbers of cancelled rows
// stay reserved.
func (l *Ledger) CreateInstallment(sequenceNo int, plannedAmount decimal.Decimal, plannedDate time.Time, description string) (*Installment, error) {
	if l.hasSequence(sequenceNo) {
		return nil, shared.NewValidationError(CodeDuplicateSequence,
			fmt.Sprintf("Installment #%d already exists for %s", sequenceNo, l.parent.Type))
	}
	inst, err := NewInstallment(l.parent, sequenceNo, plannedAmount, plannedDate, description)
	if err != nil {
		return nil, err
	}

	l.rows = append(l.rows, inst)
	l.sort()
	l.events = append(l.events, NewInstallmentCreatedEvent(inst))
	return inst, nil
}

// RecordPayment pays an open installment
func (l *Ledger) RecordPayment(installmentID uuid.UUID, in PaymentInput) (*Installment, error) {
	inst, err := l.Find(installmentID)
	if err != nil {
		return nil, err
	}
	if !inst.Status.CanRecordPayment() {
		return nil, shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot record payment on installment #%d in %s status", inst.SequenceNo, inst.Status))
	}
	split, err := l.validatePayment(inst.ID, in)
	if err != nil {
		return nil, err
	}

	inst.applyPayment(in.Amount, split, in.Method, paymentDate(in), in.Description)
	l.events = append(l.events, NewPaymentRecordedEvent(inst))
	return inst, nil
}

// RecordAdHocPayment creates a row numbered after the last one and pays it
func (l *Ledger) RecordAdHocPayment(in PaymentInput) (*Installment, error) {
	split, err := l.validatePayment(uuid.Nil, in)
	if err != nil {
		return nil, err
	}

	paidAt := paymentDate(in)
	inst, err := NewInstallment(l.parent, l.NextSequenceNo(), in.Amount, paidAt, in.Description)
	if err != nil {
		return nil, err
	}
	inst.Kind = InstallmentKindAdHoc
	inst.applyPayment(in.Amount, split, in.Method, paidAt, in.Description)

	l.rows = append(l.rows, inst)
	l.sort()
	l.events = append(l.events, NewPaymentRecordedEvent(inst))
	return inst, nil
}

// EditPayment corrects a paid installment. The previous paid amount is
// returned for auditing.
func (l *Ledger) EditPayment(installmentID uuid.UUID, in PaymentInput) (*Installment, decimal.Decimal, error) {
	inst, err := l.Find(installmentID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if inst.Status != InstallmentStatusPaid {
		return nil, decimal.Zero, shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot edit payment of installment #%d in %s status", inst.SequenceNo, inst.Status))
	}
	split, err := l.validatePayment(inst.ID, in)
	if err != nil {
		return nil, decimal.Zero, err
	}

	previous := inst.PaidAmount
	inst.applyPayment(in.Amount, split, in.Method, paymentDate(in), in.Description)
	l.events = append(l.events, NewPaymentEditedEvent(inst, previous))
	return inst, previous, nil
}

// CancelPayment cancels an installment. The row is kept with its amounts and
// stops contributing to totals.
func (l *Ledger) CancelPayment(installmentID uuid.UUID, reason string) (*Installment, error) {
	inst, err := l.Find(installmentID)
	if err != nil {
		return nil, err
	}
	if !inst.IsActive() {
		return nil, shared.NewStateTransitionError(shared.CodeInvalidTransition,
			fmt.Sprintf("Installment #%d is already cancelled", inst.SequenceNo))
	}

	inst.cancel(reason)
	l.events = append(l.events, NewPaymentCancelledEvent(inst))
	return inst, nil
}

// MarkOverdue moves unpaid rows planned before asOf to en_retard
func (l *Ledger) MarkOverdue(asOf time.Time) []*Installment {
	var marked []*Installment
	for _, row := range l.rows {
		if !row.IsOverdue(asOf) {
			continue
		}
		row.Status = InstallmentStatusOverdue
		row.UpdatedAt = time.Now()
		marked = append(marked, row)
		l.events = append(l.events, NewInstallmentOverdueEvent(row))
	}
	return marked
}

// Validate checks the row invariants and the contractual ceiling
func (l *Ledger) Validate() error {
	for _, row := range l.rows {
		if err := row.ValidateInvariants(); err != nil {
			return err
		}
	}
	if paid := l.TotalPaid(); paid.GreaterThan(l.contractualTotal) {
		return l.overAllocation(paid, decimal.Zero)
	}
	return nil
}

// Events returns the domain events raised since the last ClearEvents
func (l *Ledger) Events() []shared.DomainEvent {
	return l.events
}

// ClearEvents drops the pending events
func (l *Ledger) ClearEvents() {
	l.events = nil
}

func (l *Ledger) validatePayment(excluding uuid.UUID, in PaymentInput) (Split, error) {
	split, err := ResolveSplit(in.Amount, in.Method, in.Split)
	if err != nil {
		return Split{}, err
	}
	current := l.totalPaidExcluding(excluding)
	if current.Add(in.Amount).GreaterThan(l.contractualTotal) {
		return Split{}, l.overAllocation(current, in.Amount)
	}
	return split, nil
}

func (l *Ledger) overAllocation(current, attempted decimal.Decimal) *shared.DomainError {
	available := l.contractualTotal.Sub(current)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return shared.NewConsistencyError(CodeOverAllocation,
		fmt.Sprintf("Payment of %s exceeds the remaining %s on a contractual total of %s",
			attempted.StringFixed(2), available.StringFixed(2), l.contractualTotal.StringFixed(2)),
		map[string]any{
			"current_total_paid": current.StringFixed(2),
			"contractual_total":  l.contractualTotal.StringFixed(2),
			"attempted_amount":   attempted.StringFixed(2),
			"remaining":          available.StringFixed(2),
		})
}

func (l *Ledger) totalPaidExcluding(id uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, row := range l.rows {
		if row.ID == id {
			continue
		}
		total = total.Add(row.Contribution())
	}
	return total
}

func (l *Ledger) hasSequence(sequenceNo int) bool {
	for _, row := range l.rows {
		if row.SequenceNo == sequenceNo {
			return true
		}
	}
	return false
}

func (l *Ledger) sort() {
	sort.SliceStable(l.rows, func(i, j int) bool {
		return l.rows[i].SequenceNo < l.rows[j].SequenceNo
	})
}

func paymentDate(in PaymentInput) time.Time {
	if in.PaymentDate.IsZero() {
		return time.Now()
	}
	return in.PaymentDate
}

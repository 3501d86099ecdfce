package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeInstallmentCreated   = "InstallmentCreated"
	EventTypePaymentRecorded      = "PaymentRecorded"
	EventTypePaymentEdited        = "PaymentEdited"
	EventTypePaymentCancelled     = "PaymentCancelled"
	EventTypeInstallmentOverdue   = "InstallmentOverdue"
	EventTypePaymentStatusChanged = "PaymentStatusChanged"
	EventTypeCheckIssued          = "CheckIssued"
	EventTypeCheckCleared         = "CheckCleared"
	EventTypeCheckCancelled       = "CheckCancelled"
	EventTypeCheckAmended         = "CheckAmended"
)

const (
	aggregateTypeInstallment = "Installment"
	aggregateTypeCheck       = "Check"
)

// InstallmentCreatedEvent is raised when a scheduled installment is added
type InstallmentCreatedEvent struct {
	shared.BaseDomainEvent
	Parent        ParentRef       `json:"parent"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	SequenceNo    int             `json:"sequence_no"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	PlannedDate   time.Time       `json:"planned_date"`
}

// NewInstallmentCreatedEvent creates a new InstallmentCreatedEvent
func NewInstallmentCreatedEvent(i *Installment) *InstallmentCreatedEvent {
	return &InstallmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentCreated, aggregateTypeInstallment, i.ID),
		Parent:          i.Parent,
		InstallmentID:   i.ID,
		SequenceNo:      i.SequenceNo,
		PlannedAmount:   i.PlannedAmount,
		PlannedDate:     i.PlannedDate,
	}
}

// PaymentRecordedEvent is raised when an installment gets paid
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Parent        ParentRef       `json:"parent"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	SequenceNo    int             `json:"sequence_no"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Split         Split           `json:"split"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(i *Installment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, aggregateTypeInstallment, i.ID),
		Parent:          i.Parent,
		InstallmentID:   i.ID,
		SequenceNo:      i.SequenceNo,
		Amount:          i.PaidAmount,
		Method:          i.Method,
		Split:           i.Split,
	}
}

// PaymentEditedEvent is raised when a recorded payment is corrected
type PaymentEditedEvent struct {
	shared.BaseDomainEvent
	Parent         ParentRef       `json:"parent"`
	InstallmentID  uuid.UUID       `json:"installment_id"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	Split          Split           `json:"split"`
}

// NewPaymentEditedEvent creates a new PaymentEditedEvent
func NewPaymentEditedEvent(i *Installment, previousAmount decimal.Decimal) *PaymentEditedEvent {
	return &PaymentEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentEdited, aggregateTypeInstallment, i.ID),
		Parent:          i.Parent,
		InstallmentID:   i.ID,
		PreviousAmount:  previousAmount,
		Amount:          i.PaidAmount,
		Method:          i.Method,
		Split:           i.Split,
	}
}

// PaymentCancelledEvent is raised when an installment is cancelled
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	Parent        ParentRef       `json:"parent"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(i *Installment) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCancelled, aggregateTypeInstallment, i.ID),
		Parent:          i.Parent,
		InstallmentID:   i.ID,
		Amount:          i.PaidAmount,
		Reason:          i.CancelReason,
	}
}

// InstallmentOverdueEvent is raised when an unpaid installment passes its planned date
type InstallmentOverdueEvent struct {
	shared.BaseDomainEvent
	Parent        ParentRef       `json:"parent"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	SequenceNo    int             `json:"sequence_no"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	PlannedDate   time.Time       `json:"planned_date"`
}

// NewInstallmentOverdueEvent creates a new InstallmentOverdueEvent
func NewInstallmentOverdueEvent(i *Installment) *InstallmentOverdueEvent {
	return &InstallmentOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentOverdue, aggregateTypeInstallment, i.ID),
		Parent:          i.Parent,
		InstallmentID:   i.ID,
		SequenceNo:      i.SequenceNo,
		PlannedAmount:   i.PlannedAmount,
		PlannedDate:     i.PlannedDate,
	}
}

// PaymentStatusChangedEvent is raised when a parent's derived payment status moves
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	Parent     ParentRef       `json:"parent"`
	FromStatus PaymentStatus   `json:"from_status"`
	ToStatus   PaymentStatus   `json:"to_status"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(parent ParentRef, from PaymentStatus, totals Totals) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, string(parent.Type), parent.ID),
		Parent:          parent,
		FromStatus:      from,
		ToStatus:        totals.Status,
		TotalPaid:       totals.TotalPaid,
		Remaining:       totals.Remaining,
	}
}

// CheckIssuedEvent is raised when a check is recorded
type CheckIssuedEvent struct {
	shared.BaseDomainEvent
	CheckID    uuid.UUID       `json:"check_id"`
	Number     string          `json:"numero_cheque"`
	IssuerName string          `json:"nom_emetteur"`
	Amount     decimal.Decimal `json:"amount"`
	Type       CheckType       `json:"type"`
}

// NewCheckIssuedEvent creates a new CheckIssuedEvent
func NewCheckIssuedEvent(c *Check) *CheckIssuedEvent {
	return &CheckIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckIssued, aggregateTypeCheck, c.ID),
		CheckID:         c.ID,
		Number:          c.Number,
		IssuerName:      c.IssuerName,
		Amount:          c.Amount,
		Type:            c.Type,
	}
}

// CheckClearedEvent is raised when a check is cashed
type CheckClearedEvent struct {
	shared.BaseDomainEvent
	CheckID      uuid.UUID       `json:"check_id"`
	Number       string          `json:"numero_cheque"`
	Amount       decimal.Decimal `json:"amount"`
	ClearingDate time.Time       `json:"clearing_date"`
}

// NewCheckClearedEvent creates a new CheckClearedEvent
func NewCheckClearedEvent(c *Check) *CheckClearedEvent {
	e := &CheckClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckCleared, aggregateTypeCheck, c.ID),
		CheckID:         c.ID,
		Number:          c.Number,
		Amount:          c.Amount,
	}
	if c.ClearingDate != nil {
		e.ClearingDate = *c.ClearingDate
	}
	return e
}

// CheckCancelledEvent is raised when a check is cancelled
type CheckCancelledEvent struct {
	shared.BaseDomainEvent
	CheckID       uuid.UUID       `json:"check_id"`
	Number        string          `json:"numero_cheque"`
	Amount        decimal.Decimal `json:"amount"`
	InstallmentID *uuid.UUID      `json:"installment_id,omitempty"`
	Reason        string          `json:"reason"`
}

// NewCheckCancelledEvent creates a new CheckCancelledEvent
func NewCheckCancelledEvent(c *Check) *CheckCancelledEvent {
	return &CheckCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckCancelled, aggregateTypeCheck, c.ID),
		CheckID:         c.ID,
		Number:          c.Number,
		Amount:          c.Amount,
		InstallmentID:   c.InstallmentID,
		Reason:          c.CancelReason,
	}
}

// CheckAmendedEvent is raised when the amount of an issued check is corrected
type CheckAmendedEvent struct {
	shared.BaseDomainEvent
	CheckID        uuid.UUID       `json:"check_id"`
	Number         string          `json:"numero_cheque"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	Amount         decimal.Decimal `json:"amount"`
}

// NewCheckAmendedEvent creates a new CheckAmendedEvent
func NewCheckAmendedEvent(c *Check, previous decimal.Decimal) *CheckAmendedEvent {
	return &CheckAmendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckAmended, aggregateTypeCheck, c.ID),
		CheckID:         c.ID,
		Number:          c.Number,
		PreviousAmount:  previous,
		Amount:          c.Amount,
	}
}

package finance

import (
	"context"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentAuditHandler writes an audit line for every committed payment,
// check and capacity event
type PaymentAuditHandler struct {
	logger *zap.Logger
}

// NewPaymentAuditHandler creates a new audit handler
func NewPaymentAuditHandler(logger *zap.Logger) *PaymentAuditHandler {
	return &PaymentAuditHandler{
		logger: logger.Named("audit"),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentAuditHandler) EventTypes() []string {
	return []string{
		finance.EventTypeInstallmentCreated,
		finance.EventTypePaymentRecorded,
		finance.EventTypePaymentEdited,
		finance.EventTypePaymentCancelled,
		finance.EventTypeInstallmentOverdue,
		finance.EventTypePaymentStatusChanged,
		finance.EventTypeCheckIssued,
		finance.EventTypeCheckCleared,
		finance.EventTypeCheckCancelled,
		finance.EventTypeCheckAmended,
		realestate.EventTypeProjectCapacityChanged,
		realestate.EventTypeSaleCreated,
		realestate.EventTypeSaleCancelled,
	}
}

// Handle logs the event with the fields relevant to its type
func (h *PaymentAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *finance.PaymentRecordedEvent:
		fields = append(fields,
			zap.String("parent", e.Parent.String()),
			zap.Int("numero_echeance", e.SequenceNo),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("method", string(e.Method)),
			zap.String("declared", e.Split.Declared.StringFixed(2)),
			zap.String("non_declared", e.Split.NonDeclared.StringFixed(2)),
		)
	case *finance.PaymentEditedEvent:
		fields = append(fields,
			zap.String("parent", e.Parent.String()),
			zap.String("previous_amount", e.PreviousAmount.StringFixed(2)),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("method", string(e.Method)),
		)
	case *finance.PaymentCancelledEvent:
		fields = append(fields,
			zap.String("parent", e.Parent.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("reason", e.Reason),
		)
	case *finance.PaymentStatusChangedEvent:
		fields = append(fields,
			zap.String("parent", e.Parent.String()),
			zap.String("from", string(e.FromStatus)),
			zap.String("to", string(e.ToStatus)),
			zap.String("total_paid", e.TotalPaid.StringFixed(2)),
		)
	case *finance.CheckCancelledEvent:
		fields = append(fields,
			zap.String("numero_cheque", e.Number),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("reason", e.Reason),
		)
	case *finance.CheckAmendedEvent:
		fields = append(fields,
			zap.String("numero_cheque", e.Number),
			zap.String("previous_amount", e.PreviousAmount.StringFixed(2)),
			zap.String("amount", e.Amount.StringFixed(2)),
		)
	case *realestate.ProjectCapacityChangedEvent:
		fields = append(fields,
			zap.String("category", string(e.Category)),
			zap.Int("previous", e.PreviousCapacity),
			zap.Int("capacity", e.NewCapacity),
		)
	}

	h.logger.Info("domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*PaymentAuditHandler)(nil)

package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// idempotencyKeyPrefix namespaces payment keys in a shared store
const idempotencyKeyPrefix = "payment:"

var tracer = otel.Tracer("github.com/immo/backend/internal/application/finance")

// OperationObserver receives the outcome of every ledger mutation
type OperationObserver interface {
	ObserveLedgerOperation(ctx context.Context, op string, parent finance.ParentRef, elapsed time.Duration, err error)
}

// LedgerService handles installment schedules and the payments recorded on them.
// Every mutation locks the parent sale or expense, applies the change to the
// full set of rows and persists the recomputed totals in the same transaction.
type LedgerService struct {
	repos          Repositories
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	observer       OperationObserver
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repos Repositories, txScope TransactionScope, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repos:          repos,
		txScope:        txScope,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables duplicate detection for payment submissions
// that carry an idempotency key
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetObserver registers a sink for operation outcomes and timings
func (s *LedgerService) SetObserver(observer OperationObserver) {
	s.observer = observer
}

// CreateInstallment adds a scheduled installment to a sale or expense
func (s *LedgerService) CreateInstallment(ctx context.Context, req CreateInstallmentRequest) (*PaymentResult, error) {
	return s.mutate(ctx, "create_installment", req.Parent, func(tx *ledgerTx) (*finance.Installment, error) {
		inst, err := tx.ledger.CreateInstallment(req.SequenceNo, req.PlannedAmount, req.PlannedDate, req.Description)
		if err != nil {
			return nil, err
		}
		tx.touch(inst)
		return inst, nil
	})
}

// RecordPayment pays a scheduled installment
func (s *LedgerService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := s.checkDuplicate(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	result, err := s.mutate(ctx, "record_payment", req.Parent, func(tx *ledgerTx) (*finance.Installment, error) {
		if err := tx.parent.CanAcceptPayments(); err != nil {
			return nil, err
		}
		inst, err := tx.ledger.RecordPayment(req.InstallmentID, req.input())
		if err != nil {
			return nil, err
		}
		if err := tx.attachCheck(ctx, inst, req.Check); err != nil {
			return nil, err
		}
		tx.touch(inst)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, req.IdempotencyKey)
	return result, nil
}

// RecordAdHocPayment records a payment outside the schedule on a new row
func (s *LedgerService) RecordAdHocPayment(ctx context.Context, req AdHocPaymentRequest) (*PaymentResult, error) {
	if err := s.checkDuplicate(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	result, err := s.mutate(ctx, "record_adhoc_payment", req.Parent, func(tx *ledgerTx) (*finance.Installment, error) {
		if err := tx.parent.CanAcceptPayments(); err != nil {
			return nil, err
		}
		inst, err := tx.ledger.RecordAdHocPayment(req.input())
		if err != nil {
			return nil, err
		}
		if err := tx.attachCheck(ctx, inst, req.Check); err != nil {
			return nil, err
		}
		tx.touch(inst)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}

	s.markProcessed(ctx, req.IdempotencyKey)
	return result, nil
}

// EditPayment corrects the amount, split or method of a paid installment
func (s *LedgerService) EditPayment(ctx context.Context, req EditPaymentRequest) (*PaymentResult, error) {
	return s.mutate(ctx, "edit_payment", req.Parent, func(tx *ledgerTx) (*finance.Installment, error) {
		if err := tx.parent.CanAcceptPayments(); err != nil {
			return nil, err
		}
		inst, _, err := tx.ledger.EditPayment(req.InstallmentID, req.input())
		if err != nil {
			return nil, err
		}
		if err := tx.reconcileEditedCheck(ctx, inst, req.Check); err != nil {
			return nil, err
		}
		tx.touch(inst)
		return inst, nil
	})
}

// CancelPayment cancels an installment. The row is kept for audit.
func (s *LedgerService) CancelPayment(ctx context.Context, req CancelPaymentRequest) (*PaymentResult, error) {
	return s.mutate(ctx, "cancel_payment", req.Parent, func(tx *ledgerTx) (*finance.Installment, error) {
		inst, err := tx.ledger.CancelPayment(req.InstallmentID, req.Reason)
		if err != nil {
			return nil, err
		}
		if err := tx.releaseCheck(ctx, inst, req.Reason); err != nil {
			return nil, err
		}
		tx.touch(inst)
		return inst, nil
	})
}

// MarkOverdue moves the parent's unpaid installments planned before asOf to
// en_retard and returns how many rows changed
func (s *LedgerService) MarkOverdue(ctx context.Context, parent finance.ParentRef, asOf time.Time) (int, error) {
	var marked int
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := openLedger(ctx, repos, parent)
		if err != nil {
			return err
		}
		rows := tx.ledger.MarkOverdue(asOf)
		if len(rows) == 0 {
			return nil
		}
		if err := repos.Installments().SaveBatch(ctx, rows); err != nil {
			return err
		}
		marked = len(rows)
		events = tx.ledger.Events()
		return nil
	})
	if err != nil {
		s.logFailure("mark_overdue", parent, err)
		return 0, err
	}

	s.publish(ctx, events)
	if marked > 0 {
		s.logger.Info("installments marked overdue",
			zap.String("parent", parent.String()),
			zap.Int("count", marked),
		)
	}
	return marked, nil
}

// GetSale returns a sale with its derived totals and installments
func (s *LedgerService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.repos.Sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Installments.FindByParent(ctx, finance.SaleRef(id))
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, rows), nil
}

// GetExpense returns an expense with its derived totals and payments
func (s *LedgerService) GetExpense(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.repos.Expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Installments.FindByParent(ctx, finance.ExpenseRef(id))
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense, rows), nil
}

// ListInstallments returns the rows of a parent in ascending sequence order
func (s *LedgerService) ListInstallments(ctx context.Context, parent finance.ParentRef) ([]InstallmentResponse, error) {
	rows, err := s.repos.Installments.FindByParent(ctx, parent)
	if err != nil {
		return nil, err
	}
	return toInstallmentResponses(rows), nil
}

// mutate runs fn on the locked ledger of parent, commits the totals and
// publishes the collected events once the transaction has committed
func (s *LedgerService) mutate(ctx context.Context, op string, parent finance.ParentRef, fn func(tx *ledgerTx) (*finance.Installment, error)) (*PaymentResult, error) {
	var result *PaymentResult
	var events []shared.DomainEvent

	ctx, span := tracer.Start(ctx, "ledger."+op)
	span.SetAttributes(
		attribute.String("parent.type", string(parent.Type)),
		attribute.String("parent.id", parent.ID.String()),
	)
	defer span.End()
	start := time.Now()

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := openLedger(ctx, repos, parent)
		if err != nil {
			return err
		}
		inst, err := fn(tx)
		if err != nil {
			return err
		}
		totals, err := tx.commit(ctx)
		if err != nil {
			return err
		}
		result = tx.result(inst, totals)
		events = tx.events
		return nil
	})
	if s.observer != nil {
		s.observer.ObserveLedgerOperation(ctx, op, parent, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logFailure(op, parent, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("payment_status", result.Totals.PaymentStatus))

	s.publish(ctx, events)
	s.logger.Info("ledger updated",
		zap.String("operation", op),
		zap.String("parent", parent.String()),
		zap.Int("numero_echeance", result.Installment.SequenceNo),
		zap.String("total_paid", result.Totals.TotalPaid.StringFixed(2)),
		zap.String("payment_status", result.Totals.PaymentStatus),
	)
	return result, nil
}

func (s *LedgerService) checkDuplicate(ctx context.Context, key string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, idempotencyKeyPrefix+key)
	if err != nil {
		s.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if processed {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *LedgerService) markProcessed(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, idempotencyKeyPrefix+key, s.idempotencyTTL); err != nil {
		s.logger.Warn("failed to remember idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *LedgerService) publish(ctx context.Context, events []shared.DomainEvent) {
	publishEvents(ctx, s.eventPublisher, s.logger, events)
}

func (s *LedgerService) logFailure(op string, parent finance.ParentRef, err error) {
	logRejection(s.logger, op, err, zap.String("parent", parent.String()))
}

// publishEvents hands committed events to the publisher. Delivery failures
// are logged and never undo the committed change.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// logRejection logs business rejections at warn and unexpected failures at error
func logRejection(logger *zap.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if shared.KindOf(err) == shared.KindStorage {
		logger.Error("operation failed", fields...)
		return
	}
	logger.Warn("operation rejected", fields...)
}

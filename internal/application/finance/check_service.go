package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CheckService tracks checks through emis → encaisse | annule
type CheckService struct {
	repos          Repositories
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckService creates a new CheckService
func NewCheckService(repos Repositories, txScope TransactionScope, logger *zap.Logger) *CheckService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckService{
		repos:   repos,
		txScope: txScope,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CheckService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Issue registers a check that was not produced by a payment
func (s *CheckService) Issue(ctx context.Context, req IssueCheckRequest) (*CheckResponse, error) {
	var check *finance.Check
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		checkType := req.Type
		if checkType == "" && req.Parent != nil {
			checkType = finance.CheckTypeFor(req.Parent.Type)
		}
		c, err := newUniqueCheck(ctx, repos.Checks(), req.Details, checkType, req.Amount)
		if err != nil {
			return err
		}
		if req.Parent != nil {
			if _, err := lockParent(ctx, repos, *req.Parent); err != nil {
				return err
			}
			c.LinkToParent(*req.Parent)
		}
		if err := repos.Checks().Save(ctx, c); err != nil {
			return err
		}
		check = c
		events = c.PullDomainEvents()
		return nil
	})
	if err != nil {
		logRejection(s.logger, "issue_check", err, zap.String("numero_cheque", req.Details.Number))
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("check issued",
		zap.String("check_id", check.ID.String()),
		zap.String("numero_cheque", check.Number),
		zap.String("amount", check.Amount.StringFixed(2)),
	)
	return toCheckResponse(check), nil
}

// Clear marks an issued check as encaisse
func (s *CheckService) Clear(ctx context.Context, id uuid.UUID, clearingDate time.Time) (*CheckResponse, error) {
	var check *finance.Check
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Checks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Clear(clearingDate); err != nil {
			return err
		}
		if err := repos.Checks().SaveWithLock(ctx, c); err != nil {
			return err
		}
		check = c
		events = c.PullDomainEvents()
		return nil
	})
	if err != nil {
		logRejection(s.logger, "clear_check", err, zap.String("check_id", id.String()))
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("check cleared", zap.String("check_id", id.String()))
	return toCheckResponse(check), nil
}

// Cancel marks an issued check as annule. When the check backs an active
// payment, that payment's check leg stops counting and the parent totals are
// recomputed in the same transaction.
func (s *CheckService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*CheckResponse, error) {
	// Read the link first so the parent row is locked before the check row,
	// the same order payment mutations use.
	current, err := s.repos.Checks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var check *finance.Check
	var events []shared.DomainEvent

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var tx *ledgerTx
		if parent, ok := current.Parent(); ok && current.InstallmentID != nil {
			var err error
			if tx, err = openLedger(ctx, repos, parent); err != nil {
				return err
			}
		}

		c, err := repos.Checks().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Checks().SaveWithLock(ctx, c); err != nil {
			return err
		}
		check = c
		events = c.PullDomainEvents()

		if tx == nil {
			return nil
		}
		inst, ok := tx.ledger.FindByCheck(c.ID)
		if !ok || !inst.IsActive() {
			return nil
		}
		inst.VoidCheckLeg()
		tx.touch(inst)
		if _, err := tx.commit(ctx); err != nil {
			return err
		}
		events = append(events, tx.events...)
		return nil
	})
	if err != nil {
		logRejection(s.logger, "cancel_check", err, zap.String("check_id", id.String()))
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("check cancelled", zap.String("check_id", id.String()), zap.String("reason", reason))
	return toCheckResponse(check), nil
}

// Get returns a check by ID
func (s *CheckService) Get(ctx context.Context, id uuid.UUID) (*CheckResponse, error) {
	check, err := s.repos.Checks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCheckResponse(check), nil
}

// List returns checks matching the filter with the total count
func (s *CheckService) List(ctx context.Context, filter CheckListFilter) ([]CheckResponse, int64, error) {
	f := finance.CheckFilter{
		Filter:     shared.DefaultFilter(),
		SaleID:     filter.SaleID,
		ExpenseID:  filter.ExpenseID,
		IssuerName: filter.IssuerName,
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := finance.CheckStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError(shared.CodeInvalidInput, "Invalid check status: "+filter.Status)
		}
		f.Status = &status
	}
	if filter.Type != "" {
		checkType := finance.CheckType(filter.Type)
		if !checkType.IsValid() {
			return nil, 0, shared.NewValidationError(shared.CodeInvalidInput, "Invalid check type: "+filter.Type)
		}
		f.Type = &checkType
	}

	checks, total, err := s.repos.Checks.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CheckResponse, len(checks))
	for i := range checks {
		out[i] = *toCheckResponse(&checks[i])
	}
	return out, total, nil
}

// ListByParent returns the checks linked to a sale or expense
func (s *CheckService) ListByParent(ctx context.Context, parent finance.ParentRef) ([]CheckResponse, error) {
	filter := CheckListFilter{PageSize: 100}
	switch parent.Type {
	case finance.ParentTypeSale:
		filter.SaleID = &parent.ID
	case finance.ParentTypeExpense:
		filter.ExpenseID = &parent.ID
	default:
		return nil, shared.NewValidationError("INVALID_PARENT", "Unknown parent type")
	}
	checks, _, err := s.List(ctx, filter)
	return checks, err
}

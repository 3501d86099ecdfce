package finance

import (
	"context"
	"fmt"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CodeUnitAlreadySold is returned when an active sale already holds the unit
const CodeUnitAlreadySold = realestate.CodeUnitAlreadySold

// advanceDescription labels the installment created from a sale advance
const advanceDescription = "Avance"

// SaleService handles sales and expenses, the two payment parents
type SaleService struct {
	repos          Repositories
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(repos Repositories, txScope TransactionScope, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		repos:   repos,
		txScope: txScope,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateSale sells a unit of a project. The project row is locked while the
// category capacity is checked. A positive advance becomes installment #1,
// recorded as paid in the same transaction.
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	var sale *realestate.Sale
	var rows []finance.Installment
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		project, err := repos.Projects().FindByIDForUpdate(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		sold, err := repos.Sales().CountActiveByCategory(ctx, project.ID, req.UnitCategory)
		if err != nil {
			return err
		}
		if err := realestate.ValidateNewSale(project, req.UnitCategory, sold); err != nil {
			return err
		}

		sl, err := realestate.NewSale(project.ID, req.UnitCategory, req.UnitNumber, req.ClientName, req.TotalPrice, req.SaleDate)
		if err != nil {
			return err
		}
		sl.ClientPhone = req.ClientPhone
		sl.Description = req.Description

		taken, err := repos.Sales().ExistsActiveUnit(ctx, project.ID, sl.UnitCategory, sl.UnitNumber)
		if err != nil {
			return err
		}
		if taken {
			return shared.NewConsistencyError(CodeUnitAlreadySold,
				fmt.Sprintf("Unit %s %s is already sold", sl.UnitCategory, sl.UnitNumber),
				map[string]any{
					"project_id":  project.ID.String(),
					"category":    string(sl.UnitCategory),
					"unit_number": sl.UnitNumber,
				})
		}

		if err := repos.Sales().Save(ctx, sl); err != nil {
			return err
		}
		events = append(events, sl.PullDomainEvents()...)

		if req.Advance != nil && req.Advance.Amount.IsPositive() {
			tx := newLedgerTx(repos, sl, nil)
			if err := recordAdvance(ctx, tx, sl, *req.Advance); err != nil {
				return err
			}
			events = append(events, tx.events...)
			rows = tx.ledger.Installments()
		}
		sale = sl
		return nil
	})
	if err != nil {
		logRejection(s.logger, "create_sale", err,
			zap.String("project_id", req.ProjectID.String()),
			zap.String("unit_number", req.UnitNumber),
		)
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("unit", fmt.Sprintf("%s %s", sale.UnitCategory, sale.UnitNumber)),
		zap.String("total_price", sale.TotalPrice.StringFixed(2)),
	)
	return toSaleResponse(sale, rows), nil
}

func recordAdvance(ctx context.Context, tx *ledgerTx, sale *realestate.Sale, advance PaymentRequest) error {
	in := advance.input()
	if in.PaymentDate.IsZero() {
		in.PaymentDate = sale.SaleDate
	}
	if in.Description == "" {
		in.Description = advanceDescription
	}

	inst, err := tx.ledger.CreateInstallment(1, in.Amount, sale.SaleDate, advanceDescription)
	if err != nil {
		return err
	}
	if _, err := tx.ledger.RecordPayment(inst.ID, in); err != nil {
		return err
	}
	if err := tx.attachCheck(ctx, inst, advance.Check); err != nil {
		return err
	}
	tx.touch(inst)

	sale.SetAdvance(inst.PaidAmount, inst.Split, inst.Method)
	_, err = tx.commit(ctx)
	return err
}

// CancelSale cancels a sale and frees its unit
func (s *SaleService) CancelSale(ctx context.Context, req CancelSaleRequest) (*SaleResponse, error) {
	var sale *realestate.Sale
	var rows []finance.Installment
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sl, err := repos.Sales().FindByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if err := sl.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.Sales().SaveWithLock(ctx, sl); err != nil {
			return err
		}
		if rows, err = repos.Installments().FindByParent(ctx, sl.PaymentParent()); err != nil {
			return err
		}
		events = sl.PullDomainEvents()
		sale = sl
		return nil
	})
	if err != nil {
		logRejection(s.logger, "cancel_sale", err, zap.String("sale_id", req.SaleID.String()))
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("sale cancelled", zap.String("sale_id", sale.ID.String()), zap.String("reason", req.Reason))
	return toSaleResponse(sale, rows), nil
}

// CreateExpense records a project expense with nothing paid yet
func (s *SaleService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	if _, err := s.repos.Projects.FindByID(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	expense, err := realestate.NewExpense(req.ProjectID, req.Name, req.SupplierName, req.TotalAmount, req.Method, req.ExpenseDate)
	if err != nil {
		return nil, err
	}
	expense.Remark = req.Remark

	if err := s.repos.Expenses.Save(ctx, expense); err != nil {
		logRejection(s.logger, "create_expense", err, zap.String("project_id", req.ProjectID.String()))
		return nil, err
	}

	events := expense.PullDomainEvents()
	publishEvents(ctx, s.eventPublisher, s.logger, events)
	s.logger.Info("expense created",
		zap.String("expense_id", expense.ID.String()),
		zap.String("total_amount", expense.TotalAmount.StringFixed(2)),
	)
	return toExpenseResponse(expense, nil), nil
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements InstallmentRepository using GORM.
// Sale rows live in payment_plans and expense rows in expense_payments.
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByID finds an installment of the given parent
func (r *GormInstallmentRepository) FindByID(ctx context.Context, parent finance.ParentRef, id uuid.UUID) (*finance.Installment, error) {
	db := r.db.WithContext(ctx)
	var err error
	switch parent.Type {
	case finance.ParentTypeSale:
		var model models.PaymentPlanModel
		if err = db.First(&model, "id = ? AND sale_id = ?", id, parent.ID).Error; err == nil {
			return model.ToDomain(), nil
		}
	case finance.ParentTypeExpense:
		var model models.ExpensePaymentModel
		if err = db.First(&model, "id = ? AND expense_id = ?", id, parent.ID).Error; err == nil {
			return model.ToDomain(), nil
		}
	default:
		return nil, invalidParent(parent)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, finance.ErrInstallmentNotFound
	}
	return nil, fmt.Errorf("failed to find installment: %w", err)
}

// FindByParent returns every row of the parent in ascending sequence order
func (r *GormInstallmentRepository) FindByParent(ctx context.Context, parent finance.ParentRef) ([]finance.Installment, error) {
	db := r.db.WithContext(ctx).Order("numero_echeance ASC")
	switch parent.Type {
	case finance.ParentTypeSale:
		var rows []models.PaymentPlanModel
		if err := db.Where("sale_id = ?", parent.ID).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list payment plans: %w", err)
		}
		out := make([]finance.Installment, len(rows))
		for i := range rows {
			out[i] = *rows[i].ToDomain()
		}
		return out, nil
	case finance.ParentTypeExpense:
		var rows []models.ExpensePaymentModel
		if err := db.Where("expense_id = ?", parent.ID).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list expense payments: %w", err)
		}
		out := make([]finance.Installment, len(rows))
		for i := range rows {
			out[i] = *rows[i].ToDomain()
		}
		return out, nil
	}
	return nil, invalidParent(parent)
}

// Save creates or updates an installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *finance.Installment) error {
	var model any
	switch installment.Parent.Type {
	case finance.ParentTypeSale:
		m := &models.PaymentPlanModel{}
		m.FromDomain(installment)
		model = m
	case finance.ParentTypeExpense:
		m := &models.ExpensePaymentModel{}
		m.FromDomain(installment)
		model = m
	default:
		return invalidParent(installment.Parent)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save installment #%d: %w", installment.SequenceNo, err)
	}
	return nil
}

// SaveBatch creates or updates several installments
func (r *GormInstallmentRepository) SaveBatch(ctx context.Context, installments []*finance.Installment) error {
	for _, inst := range installments {
		if err := r.Save(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

// FindParentsWithPastDue returns the parents holding en_attente rows planned
// before asOf, sales first
func (r *GormInstallmentRepository) FindParentsWithPastDue(ctx context.Context, asOf time.Time) ([]finance.ParentRef, error) {
	db := r.db.WithContext(ctx)
	var saleIDs, expenseIDs []uuid.UUID
	if err := db.Model(&models.PaymentPlanModel{}).
		Where("statut = ? AND date_prevue < ?", finance.InstallmentStatusPending, asOf).
		Distinct().Order("sale_id").Pluck("sale_id", &saleIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list past-due sales: %w", err)
	}
	if err := db.Model(&models.ExpensePaymentModel{}).
		Where("statut = ? AND date_prevue < ?", finance.InstallmentStatusPending, asOf).
		Distinct().Order("expense_id").Pluck("expense_id", &expenseIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list past-due expenses: %w", err)
	}

	parents := make([]finance.ParentRef, 0, len(saleIDs)+len(expenseIDs))
	for _, id := range saleIDs {
		parents = append(parents, finance.SaleRef(id))
	}
	for _, id := range expenseIDs {
		parents = append(parents, finance.ExpenseRef(id))
	}
	return parents, nil
}

func invalidParent(parent finance.ParentRef) error {
	return shared.NewValidationError("INVALID_PARENT", fmt.Sprintf("Unknown payment parent type %q", parent.Type))
}

// GormCheckRepository implements CheckRepository using GORM
type GormCheckRepository struct {
	db *gorm.DB
}

// NewGormCheckRepository creates a new GormCheckRepository
func NewGormCheckRepository(db *gorm.DB) *GormCheckRepository {
	return &GormCheckRepository{db: db}
}

// FindByID finds a check by ID
func (r *GormCheckRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Check, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a check and locks its row (SELECT ... FOR UPDATE)
func (r *GormCheckRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Check, error) {
	return r.find(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *GormCheckRepository) find(db *gorm.DB, id uuid.UUID) (*finance.Check, error) {
	var model models.CheckModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finance.ErrCheckNotFound
		}
		return nil, fmt.Errorf("failed to find check: %w", err)
	}
	return model.ToDomain(), nil
}

// ExistsByIssuerAndNumber reports whether the issuer already used the number
func (r *GormCheckRepository) ExistsByIssuerAndNumber(ctx context.Context, issuerName, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CheckModel{}).
		Where("nom_emetteur = ? AND numero_cheque = ?", issuerName, number).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check number: %w", err)
	}
	return count > 0, nil
}

// FindAll lists checks matching the filter with the total count
func (r *GormCheckRepository) FindAll(ctx context.Context, filter finance.CheckFilter) ([]finance.Check, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CheckModel{})
	if filter.Status != nil {
		query = query.Where("statut = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type_cheque = ?", *filter.Type)
	}
	if filter.SaleID != nil {
		query = query.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.ExpenseID != nil {
		query = query.Where("expense_id = ?", *filter.ExpenseID)
	}
	if issuer := strings.TrimSpace(filter.IssuerName); issuer != "" {
		query = query.Where("nom_emetteur = ?", issuer)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count checks: %w", err)
	}

	query = query.Order(checkSortColumns.orderBy(filter.OrderBy, filter.OrderDir, "date_emission"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.CheckModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list checks: %w", err)
	}
	checks := make([]finance.Check, len(rows))
	for i := range rows {
		checks[i] = *rows[i].ToDomain()
	}
	return checks, total, nil
}

// Save creates or updates a check
func (r *GormCheckRepository) Save(ctx context.Context, check *finance.Check) error {
	model := models.CheckModelFromDomain(check)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save check: %w", err)
	}
	return nil
}

// SaveWithLock writes the mutable columns of a check with a version check
func (r *GormCheckRepository) SaveWithLock(ctx context.Context, check *finance.Check) error {
	model := models.CheckModelFromDomain(check)
	result := r.db.WithContext(ctx).Model(&models.CheckModel{}).
		Where("id = ? AND version = ?", check.ID, check.Version-1).
		Updates(map[string]any{
			"statut":            model.Status,
			"montant":           model.Amount,
			"date_encaissement": model.ClearingDate,
			"sale_id":           model.SaleID,
			"expense_id":        model.ExpenseID,
			"installment_id":    model.InstallmentID,
			"lien_obsolete":     model.LinkStale,
			"cancelled_at":      model.CancelledAt,
			"cancel_reason":     model.CancelReason,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})
	return lockResult(result, "check")
}

var (
	_ finance.InstallmentRepository = (*GormInstallmentRepository)(nil)
	_ finance.CheckRepository       = (*GormCheckRepository)(nil)
)

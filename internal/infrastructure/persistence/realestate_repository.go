package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the row lock taken on the aggregate a mutation works on
var forUpdate = clause.Locking{Strength: "UPDATE"}

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*realestate.Project, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a project and locks its row (SELECT ... FOR UPDATE)
func (r *GormProjectRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Project, error) {
	return r.find(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *GormProjectRepository) find(db *gorm.DB, id uuid.UUID) (*realestate.Project, error) {
	var model models.ProjectModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Project")
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists projects with pagination
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]realestate.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProjectModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("nom LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query = query.Order(projectSortColumns.orderBy(filter.OrderBy, filter.OrderDir, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ProjectModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	projects := make([]realestate.Project, len(rows))
	for i := range rows {
		projects[i] = *rows[i].ToDomain()
	}
	return projects, total, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, project *realestate.Project) error {
	model := models.ProjectModelFromDomain(project)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// SaveWithLock writes the project only if the stored version is the one
// it was loaded with
func (r *GormProjectRepository) SaveWithLock(ctx context.Context, project *realestate.Project) error {
	model := models.ProjectModelFromDomain(project)
	result := r.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Where("id = ? AND version = ?", project.ID, project.Version-1).
		Updates(map[string]any{
			"nom":                 model.Name,
			"localisation":        model.Location,
			"superficie":          model.Surface,
			"nombre_appartements": model.Apartments,
			"nombre_garages":      model.Garages,
			"nombre_lots":         model.Lots,
			"description":         model.Description,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	return lockResult(result, "project")
}

// lockResult maps an optimistic update to the concurrency error when no row
// matched the expected version
func lockResult(result *gorm.DB, entity string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to save %s: %w", entity, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*realestate.Sale, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a sale and locks its row (SELECT ... FOR UPDATE)
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Sale, error) {
	return r.find(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *GormSaleRepository) find(db *gorm.DB, id uuid.UUID) (*realestate.Sale, error) {
	var model models.SaleModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Sale")
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByProject lists the sales of a project, newest first
func (r *GormSaleRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]realestate.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date_vente DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	sales := make([]realestate.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, nil
}

// CountActiveByCategory counts non-cancelled sales of a project category
func (r *GormSaleRepository) CountActiveByCategory(ctx context.Context, projectID uuid.UUID, category realestate.UnitCategory) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("project_id = ? AND type_bien = ? AND statut <> ?", projectID, category, realestate.SaleStatusCancelled).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// ExistsActiveUnit reports whether a non-cancelled sale holds the unit
func (r *GormSaleRepository) ExistsActiveUnit(ctx context.Context, projectID uuid.UUID, category realestate.UnitCategory, unitNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("project_id = ? AND type_bien = ? AND numero_unite = ? AND statut <> ?",
			projectID, category, unitNumber, realestate.SaleStatusCancelled).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check unit: %w", err)
	}
	return count > 0, nil
}

// Save creates or updates a sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *realestate.Sale) error {
	model := models.SaleModelFromDomain(sale)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

// SaveWithLock writes the mutable columns of a sale with a version check
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *realestate.Sale) error {
	model := models.SaleModelFromDomain(sale)
	updates := model.PaymentTotalsColumns.UpdateColumns()
	updates["statut"] = model.Status
	updates["avance_total"] = model.AdvanceAmount
	updates["avance_montant_declare"] = model.AdvanceSplit.Declared
	updates["avance_montant_non_declare"] = model.AdvanceSplit.NonDeclared
	updates["avance_montant_espece"] = model.AdvanceSplit.Cash
	updates["avance_montant_cheque"] = model.AdvanceSplit.Check
	updates["avance_mode_paiement"] = model.AdvanceMethod
	updates["description"] = model.Description
	updates["cancelled_at"] = model.CancelledAt
	updates["cancel_reason"] = model.CancelReason
	updates["version"] = model.Version
	updates["updated_at"] = model.UpdatedAt

	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Updates(updates)
	return lockResult(result, "sale")
}

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*realestate.Expense, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an expense and locks its row (SELECT ... FOR UPDATE)
func (r *GormExpenseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Expense, error) {
	return r.find(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *GormExpenseRepository) find(db *gorm.DB, id uuid.UUID) (*realestate.Expense, error) {
	var model models.ExpenseModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Expense")
		}
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByProject lists the expenses of a project, newest first
func (r *GormExpenseRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]realestate.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date_depense DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	expenses := make([]realestate.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *realestate.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// SaveWithLock writes the mutable columns of an expense with a version check
func (r *GormExpenseRepository) SaveWithLock(ctx context.Context, expense *realestate.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	updates := model.PaymentTotalsColumns.UpdateColumns()
	updates["remarque"] = model.Remark
	updates["version"] = model.Version
	updates["updated_at"] = model.UpdatedAt

	result := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Where("id = ? AND version = ?", expense.ID, expense.Version-1).
		Updates(updates)
	return lockResult(result, "expense")
}

var (
	_ realestate.ProjectRepository = (*GormProjectRepository)(nil)
	_ realestate.SaleRepository    = (*GormSaleRepository)(nil)
	_ realestate.ExpenseRepository = (*GormExpenseRepository)(nil)
)

package realestate

import (
	"context"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
)

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByIDForUpdate loads the project and locks its row until the
	// transaction ends. Capacity changes and sale creation go through it.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Project, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Project, int64, error)
	Save(ctx context.Context, project *Project) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, project *Project) error
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Sale, error)

	// CountActiveByCategory counts non-cancelled sales of a project category
	CountActiveByCategory(ctx context.Context, projectID uuid.UUID, category UnitCategory) (int64, error)

	// ExistsActiveUnit reports whether the unit is held by a non-cancelled sale
	ExistsActiveUnit(ctx context.Context, projectID uuid.UUID, category UnitCategory, unitNumber string) (bool, error)

	Save(ctx context.Context, sale *Sale) error
	SaveWithLock(ctx context.Context, sale *Sale) error
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
	SaveWithLock(ctx context.Context, expense *Expense) error
}

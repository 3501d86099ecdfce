package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
)

// InstallmentRepository persists installment rows of sales (payment_plans)
// and expenses (expense_payments)
type InstallmentRepository interface {
	// FindByID finds an installment of the given parent
	FindByID(ctx context.Context, parent ParentRef, id uuid.UUID) (*Installment, error)

	// FindByParent returns every row of the parent, cancelled ones included,
	// in ascending sequence order
	FindByParent(ctx context.Context, parent ParentRef) ([]Installment, error)

	// Save creates or updates an installment
	Save(ctx context.Context, installment *Installment) error

	// SaveBatch creates or updates several installments
	SaveBatch(ctx context.Context, installments []*Installment) error
}

// CheckFilter defines filtering options for check queries
type CheckFilter struct {
	shared.Filter
	Status     *CheckStatus
	Type       *CheckType
	SaleID     *uuid.UUID
	ExpenseID  *uuid.UUID
	IssuerName string
}

// CheckRepository defines the interface for check persistence
type CheckRepository interface {
	// FindByID finds a check by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Check, error)

	// FindByIDForUpdate finds a check and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Check, error)

	// ExistsByIssuerAndNumber reports whether the issuer already used the number
	ExistsByIssuerAndNumber(ctx context.Context, issuerName, number string) (bool, error)

	// FindAll lists checks matching the filter with the total count
	FindAll(ctx context.Context, filter CheckFilter) ([]Check, int64, error)

	// Save creates or updates a check
	Save(ctx context.Context, check *Check) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, check *Check) error
}

package persistence

import (
	"context"
	"fmt"
	"time"

	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every payment mutation runs inside one; driver failures are translated
// into the domain error taxonomy on the way out.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. A positive
// lockTimeout bounds row lock waits on PostgreSQL.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			// SET does not take bind parameters
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return TranslateError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Projects returns the project repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Projects() realestate.ProjectRepository {
	return NewGormProjectRepository(r.tx)
}

// Sales returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sales() realestate.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Expenses returns the expense repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Expenses() realestate.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

// Installments returns the installment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Installments() finance.InstallmentRepository {
	return NewGormInstallmentRepository(r.tx)
}

// Checks returns the check repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Checks() finance.CheckRepository {
	return NewGormCheckRepository(r.tx)
}

// NewRepositories builds the non-transactional repositories used for reads
func NewRepositories(db *gorm.DB) appfinance.Repositories {
	return appfinance.Repositories{
		Projects:     NewGormProjectRepository(db),
		Sales:        NewGormSaleRepository(db),
		Expenses:     NewGormExpenseRepository(db),
		Installments: NewGormInstallmentRepository(db),
		Checks:       NewGormCheckRepository(db),
	}
}

var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)
var _ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

package finance

import (
	"context"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
)

// TransactionScope provides transactional access to the payment repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Sale and Expense are the aggregate roots whose rows get locked; installments
// and checks are written alongside them and never on their own.
type TransactionalRepositories interface {
	Projects() realestate.ProjectRepository
	Sales() realestate.SaleRepository
	Expenses() realestate.ExpenseRepository
	Installments() finance.InstallmentRepository
	Checks() finance.CheckRepository
}

// Repositories bundles the non-transactional repositories used for reads
type Repositories struct {
	Projects     realestate.ProjectRepository
	Sales        realestate.SaleRepository
	Expenses     realestate.ExpenseRepository
	Installments finance.InstallmentRepository
	Checks       finance.CheckRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Projects returns the project repository.
func (s *NoOpTransactionScope) Projects() realestate.ProjectRepository {
	return s.repos.Projects
}

// Sales returns the sale repository.
func (s *NoOpTransactionScope) Sales() realestate.SaleRepository {
	return s.repos.Sales
}

// Expenses returns the expense repository.
func (s *NoOpTransactionScope) Expenses() realestate.ExpenseRepository {
	return s.repos.Expenses
}

// Installments returns the installment repository.
func (s *NoOpTransactionScope) Installments() finance.InstallmentRepository {
	return s.repos.Installments
}

// Checks returns the check repository.
func (s *NoOpTransactionScope) Checks() finance.CheckRepository {
	return s.repos.Checks
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

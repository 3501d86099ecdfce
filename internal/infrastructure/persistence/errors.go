package persistence

import (
	"context"
	"errors"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the payment core reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// constraint names from migrations/000001_init_schema.up.sql
var uniqueConstraintErrors = map[string]*shared.DomainError{
	"uq_checks_emetteur_numero": shared.NewValidationError(finance.CodeDuplicateCheckNumber,
		"Check number already used by this issuer"),
	"uq_payment_plans_sale_echeance": shared.NewValidationError(finance.CodeDuplicateSequence,
		"Sequence number already used for this sale"),
	"uq_expense_payments_expense_echeance": shared.NewValidationError(finance.CodeDuplicateSequence,
		"Sequence number already used for this expense"),
	"uq_sales_active_unit": shared.NewConsistencyError(realestate.CodeUnitAlreadySold,
		"Unit is already sold", nil),
}

// TranslateError maps a persistence failure to the domain error taxonomy.
// Domain errors pass through unchanged; lock waits, serialization failures
// and deadlocks become retryable concurrency errors; anything else is an
// opaque storage error.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.NewConcurrencyError("Timed out waiting for a lock", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if IsConflict(err) {
		return shared.NewConcurrencyError("Resource is locked by another operation", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if known, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
			return known.WithCause(err)
		}
		return shared.ErrAlreadyExists.WithCause(err)
	}
	return shared.NewStorageError(err)
}

// IsConflict reports whether err is a lock, serialization or deadlock
// failure raised by PostgreSQL
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

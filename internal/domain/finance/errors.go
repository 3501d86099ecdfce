package finance

import "github.com/immo/backend/internal/domain/shared"

// Error codes raised by the payment core
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeInvalidSplit         = "INVALID_SPLIT"
	CodeMissingSplit         = "MISSING_SPLIT"
	CodeInvalidSequence      = "INVALID_SEQUENCE"
	CodeDuplicateSequence    = "DUPLICATE_SEQUENCE"
	CodeOverAllocation       = "OVER_ALLOCATION"
	CodeDuplicateCheckNumber = "DUPLICATE_CHECK_NUMBER"
	CodeMissingCheckDetails  = "MISSING_CHECK_DETAILS"
	CodeInvalidCheck         = "INVALID_CHECK"
)

// ErrInstallmentNotFound is returned when an installment does not belong to the ledger
var ErrInstallmentNotFound = shared.NewNotFoundError("Installment")

// ErrCheckNotFound is returned when a check does not exist
var ErrCheckNotFound = shared.NewNotFoundError("Check")

func invalidSplit(message string) *shared.DomainError {
	return shared.NewValidationError(CodeInvalidSplit, message)
}

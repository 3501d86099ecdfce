package dto

import (
	"errors"
	"net/http"

	"github.com/immo/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes.
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInvalidID  = "INVALID_ID"
)

// KindHTTPStatus maps domain error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:      http.StatusBadRequest,
	shared.KindNotFound:        http.StatusNotFound,
	shared.KindConsistency:     http.StatusUnprocessableEntity,
	shared.KindStateTransition: http.StatusUnprocessableEntity,
	shared.KindConcurrency:     http.StatusConflict,
	shared.KindStorage:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a kind, 500 when unknown
func GetHTTPStatus(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError builds the status and body for err. Storage failures and
// errors outside the domain taxonomy never expose their message.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Kind == shared.KindStorage {
		code := ErrCodeInternal
		if de != nil {
			code = de.Code
		}
		return http.StatusInternalServerError, Response{
			Error: &ErrorInfo{
				Code:      code,
				Message:   "An unexpected error occurred",
				Kind:      string(shared.KindStorage),
				RequestID: requestID,
			},
		}
	}

	return GetHTTPStatus(de.Kind), Response{
		Error: &ErrorInfo{
			Code:      de.Code,
			Message:   de.Message,
			Kind:      string(de.Kind),
			Retryable: de.Retryable(),
			RequestID: requestID,
			Details:   de.Details,
		},
	}
}

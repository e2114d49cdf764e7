// Package errors provides coded domain errors with localized messages.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidInput marks malformed or missing required fields.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInvalidStatus marks an order status outside the allowed set.
	CodeInvalidStatus Code = "INVALID_STATUS"
	// CodeNotFound marks an operation targeting a nonexistent id.
	CodeNotFound Code = "NOT_FOUND"
	// CodeDuplicateID marks a create colliding with an existing id.
	CodeDuplicateID Code = "DUPLICATE_ID"
	// CodeStoreError marks an underlying persistence failure.
	CodeStoreError Code = "STORE_ERROR"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput, CodeInvalidStatus:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateID:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

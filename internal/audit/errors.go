package audit

import (
	"errors"
	"net/http"
)

// Domain errors for audit operations.
var (
	ErrNotFound        = errors.New("audit record not found")
	ErrInvalidSeverity = errors.New("invalid issue severity")
)

// MapHTTPStatus maps audit domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidSeverity) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package results

import (
	"errors"
	"net/http"
)

// Domain errors for canonical result operations.
var (
	ErrNotFound  = errors.New("canonical result not found")
	ErrDuplicate = errors.New("canonical result already exists")
	ErrNoValues  = errors.New("commit requires at least one value")
)

// MapHTTPStatus maps result domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoValues) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

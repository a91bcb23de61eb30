package submissions

import (
	"errors"
	"net/http"

	"github.com/dranandnandi/assay/internal/workflows"
)

// Domain errors for submission operations.
var (
	ErrNotFound       = errors.New("submission not found")
	ErrDuplicate      = errors.New("submission already exists")
	ErrInvalidPayload = errors.New("invalid submission payload")
)

// MapHTTPStatus maps submission domain errors to appropriate HTTP status
// codes. A missing workflow configuration is the caller's problem (400);
// pipeline failures are server errors.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidPayload) || errors.Is(err, workflows.ErrConfigNotFound) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package workflows

import (
	"errors"
	"net/http"
)

// Domain errors for workflow configuration operations.
var (
	ErrNotFound        = errors.New("workflow binding not found")
	ErrDuplicate       = errors.New("workflow binding already exists")
	ErrConfigNotFound  = errors.New("no workflow configuration for lab and test")
	ErrInvalidTaskType = errors.New("invalid task type")
	ErrInstanceDone    = errors.New("workflow instance already completed")
	ErrStaleStep       = errors.New("workflow step pointer is stale")
)

// MapHTTPStatus maps workflow domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrStaleStep) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidTaskType) || errors.Is(err, ErrInstanceDone) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

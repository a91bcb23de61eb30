package audit

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/handlers"
	"github.com/dranandnandi/assay/pkg/routes"
)

// Handler provides HTTP endpoints for reading a submission's audit trail.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "audit"),
	}
}

// Routes returns the route group definition for audit endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/audit",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/submissions/{id}/tasks", Handler: h.TaskRuns},
			{Method: "GET", Pattern: "/submissions/{id}/inferences", Handler: h.Inferences},
			{Method: "GET", Pattern: "/submissions/{id}/issues", Handler: h.Issues},
		},
	}
}

// TaskRuns returns the extraction task attempts recorded for a submission.
func (h *Handler) TaskRuns(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	runs, err := h.sys.TaskRuns(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, runs)
}

// Inferences returns the model calls recorded for a submission.
func (h *Handler) Inferences(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	calls, err := h.sys.Inferences(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, calls)
}

// Issues returns the validation issues recorded for a submission.
func (h *Handler) Issues(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	issues, err := h.sys.Issues(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, issues)
}

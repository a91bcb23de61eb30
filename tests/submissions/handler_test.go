package submissions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/audit"
	"github.com/dranandnandi/assay/internal/submissions"
	"github.com/dranandnandi/assay/internal/workflows"
	"github.com/dranandnandi/assay/pkg/pagination"
)

type mockSystem struct {
	listFn    func(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error)
	findFn    func(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
	processFn func(ctx context.Context, cmd submissions.ProcessCommand) (*submissions.ProcessResponse, error)
}

func (m *mockSystem) Handler() *submissions.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*submissions.Submission, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Process(ctx context.Context, cmd submissions.ProcessCommand) (*submissions.ProcessResponse, error) {
	return m.processFn(ctx, cmd)
}

func newTestHandler(sys *mockSystem) *submissions.Handler {
	return submissions.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *submissions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleCommand() submissions.ProcessCommand {
	return submissions.ProcessCommand{
		WorkflowInstanceID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		StepID:             1,
		OrderID:            uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		PatientID:          uuid.MustParse("770e8400-e29b-41d4-a716-446655440000"),
		LabID:              uuid.MustParse("880e8400-e29b-41d4-a716-446655440000"),
		TestName:           "Urinalysis",
		Results:            map[string]any{"pH": 7.4, "colour": "yellow"},
		CreatedBy:          "tech-01",
	}
}

func postProcess(t *testing.T, mux *http.ServeMux, cmd submissions.ProcessCommand) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}

	req := httptest.NewRequest("POST", "/submissions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProcessOK(t *testing.T) {
	resultID := uuid.New()
	sys := &mockSystem{
		processFn: func(_ context.Context, cmd submissions.ProcessCommand) (*submissions.ProcessResponse, error) {
			if cmd.TestName != "Urinalysis" {
				t.Errorf("TestName = %q, want Urinalysis", cmd.TestName)
			}
			return &submissions.ProcessResponse{
				Status:           "ok",
				WorkflowResultID: uuid.New(),
				ResultID:         &resultID,
			}, nil
		},
	}

	rec := postProcess(t, setupMux(newTestHandler(sys)), sampleCommand())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp submissions.ProcessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.ResultID == nil || *resp.ResultID != resultID {
		t.Errorf("ResultID = %v, want %s", resp.ResultID, resultID)
	}
}

func TestProcessBlockedIsStillOK(t *testing.T) {
	sys := &mockSystem{
		processFn: func(_ context.Context, _ submissions.ProcessCommand) (*submissions.ProcessResponse, error) {
			return &submissions.ProcessResponse{
				Status:           "fail",
				WorkflowResultID: uuid.New(),
				Issues: []audit.Issue{
					{Severity: audit.SeverityError, Field: "ph", Code: "required"},
				},
			}, nil
		},
	}

	rec := postProcess(t, setupMux(newTestHandler(sys)), sampleCommand())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for blocked outcome", rec.Code)
	}

	var resp submissions.ProcessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "fail" {
		t.Errorf("Status = %q, want fail", resp.Status)
	}
	if resp.ResultID != nil {
		t.Errorf("ResultID = %v, want nil for blocked commit", resp.ResultID)
	}
}

func TestProcessConfigNotFound(t *testing.T) {
	sys := &mockSystem{
		processFn: func(_ context.Context, _ submissions.ProcessCommand) (*submissions.ProcessResponse, error) {
			return nil, fmt.Errorf("resolve: %w", workflows.ErrConfigNotFound)
		},
	}

	rec := postProcess(t, setupMux(newTestHandler(sys)), sampleCommand())

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessFatalError(t *testing.T) {
	sys := &mockSystem{
		processFn: func(_ context.Context, _ submissions.ProcessCommand) (*submissions.ProcessResponse, error) {
			return nil, fmt.Errorf("parse call failed")
		},
	}

	rec := postProcess(t, setupMux(newTestHandler(sys)), sampleCommand())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestProcessMalformedBody(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("POST", "/submissions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFindInvalidID(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("GET", "/submissions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFindNotFound(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, _ uuid.UUID) (*submissions.Submission, error) {
			return nil, submissions.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("GET", "/submissions/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

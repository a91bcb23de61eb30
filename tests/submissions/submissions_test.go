package submissions_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/submissions"
	"github.com/dranandnandi/assay/internal/workflows"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", submissions.ErrNotFound, http.StatusNotFound},
		{"duplicate", submissions.ErrDuplicate, http.StatusConflict},
		{"invalid payload", submissions.ErrInvalidPayload, http.StatusBadRequest},
		{"missing workflow config", workflows.ErrConfigNotFound, http.StatusBadRequest},
		{"wrapped invalid payload", fmt.Errorf("process: %w", submissions.ErrInvalidPayload), http.StatusBadRequest},
		{"wrapped config not found", fmt.Errorf("process: %w", workflows.ErrConfigNotFound), http.StatusBadRequest},
		{"pipeline failure", fmt.Errorf("parse call failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := submissions.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		instanceID := uuid.New()
		orderID := uuid.New()
		values := url.Values{
			"workflow_instance_id": {instanceID.String()},
			"step_id":              {"2"},
			"order_id":             {orderID.String()},
			"status":               {"committed"},
			"test_name":            {"Urinalysis"},
		}

		f := submissions.FiltersFromQuery(values)

		if f.WorkflowInstanceID == nil || *f.WorkflowInstanceID != instanceID {
			t.Errorf("WorkflowInstanceID = %v, want %s", f.WorkflowInstanceID, instanceID)
		}
		if f.StepID == nil || *f.StepID != 2 {
			t.Errorf("StepID = %v, want 2", f.StepID)
		}
		if f.OrderID == nil || *f.OrderID != orderID {
			t.Errorf("OrderID = %v, want %s", f.OrderID, orderID)
		}
		if f.Status == nil || *f.Status != "committed" {
			t.Errorf("Status = %v, want committed", f.Status)
		}
		if f.TestName == nil || *f.TestName != "Urinalysis" {
			t.Errorf("TestName = %v, want Urinalysis", f.TestName)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := submissions.FiltersFromQuery(url.Values{})

		if f.WorkflowInstanceID != nil || f.StepID != nil || f.OrderID != nil ||
			f.LabID != nil || f.Status != nil || f.TestName != nil {
			t.Errorf("expected all nil fields, got %+v", f)
		}
	})

	t.Run("non-numeric step ignored", func(t *testing.T) {
		f := submissions.FiltersFromQuery(url.Values{"step_id": {"abc"}})
		if f.StepID != nil {
			t.Errorf("StepID = %v, want nil", f.StepID)
		}
	})
}

package submissions

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "submissions", "s").
	Project("id", "ID").
	Project("workflow_instance_id", "WorkflowInstanceID").
	Project("step_id", "StepID").
	Project("order_id", "OrderID").
	Project("patient_id", "PatientID").
	Project("lab_id", "LabID").
	Project("test_group_id", "TestGroupID").
	Project("test_code", "TestCode").
	Project("test_name", "TestName").
	Project("sample_id", "SampleID").
	Project("qc_summary", "QCSummary").
	Project("raw_payload", "RawPayload").
	Project("status", "Status").
	Project("created_by", "CreatedBy").
	Project("created_at", "CreatedAt").
	Project("committed_at", "CommittedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for submission queries.
// Nil fields are ignored.
type Filters struct {
	WorkflowInstanceID *uuid.UUID `json:"workflow_instance_id,omitempty"`
	StepID             *int       `json:"step_id,omitempty"`
	OrderID            *uuid.UUID `json:"order_id,omitempty"`
	LabID              *uuid.UUID `json:"lab_id,omitempty"`
	Status             *string    `json:"status,omitempty"`
	TestName           *string    `json:"test_name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("WorkflowInstanceID", f.WorkflowInstanceID).
		WhereEquals("StepID", f.StepID).
		WhereEquals("OrderID", f.OrderID).
		WhereEquals("LabID", f.LabID).
		WhereEquals("Status", f.Status).
		WhereContains("TestName", f.TestName)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("workflow_instance_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.WorkflowInstanceID = &id
		}
	}

	if v := values.Get("step_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.StepID = &n
		}
	}

	if v := values.Get("order_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OrderID = &id
		}
	}

	if v := values.Get("lab_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.LabID = &id
		}
	}

	if v := values.Get("status"); v != "" {
		f.Status = &v
	}

	if v := values.Get("test_name"); v != "" {
		f.TestName = &v
	}

	return f
}

func scanSubmission(s repository.Scanner) (Submission, error) {
	var (
		sub Submission
		raw []byte
	)

	if err := s.Scan(
		&sub.ID,
		&sub.WorkflowInstanceID,
		&sub.StepID,
		&sub.OrderID,
		&sub.PatientID,
		&sub.LabID,
		&sub.TestGroupID,
		&sub.TestCode,
		&sub.TestName,
		&sub.SampleID,
		&sub.QCSummary,
		&raw,
		&sub.Status,
		&sub.CreatedBy,
		&sub.CreatedAt,
		&sub.CommittedAt,
	); err != nil {
		return sub, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sub.RawPayload); err != nil {
			return sub, fmt.Errorf("decode raw payload: %w", err)
		}
	}

	return sub, nil
}

// Package submissions implements the submission domain for assay. A
// submission is one raw result payload tied to a workflow instance and step.
// Intake upserts the row, the processing pipeline mutates its status, and
// nothing in this subsystem ever deletes it.
package submissions

import (
	"time"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/audit"
)

// Status tracks a submission through the pipeline.
type Status string

const (
	StatusReceived  Status = "received"
	StatusCommitted Status = "committed"
	StatusError     Status = "error"
)

// Submission is one raw result payload. Unique on
// (workflow_instance_id, step_id): re-submission overwrites, never duplicates.
type Submission struct {
	ID                 uuid.UUID      `json:"id"`
	WorkflowInstanceID uuid.UUID      `json:"workflow_instance_id"`
	StepID             int            `json:"step_id"`
	OrderID            uuid.UUID      `json:"order_id"`
	PatientID          uuid.UUID      `json:"patient_id"`
	LabID              uuid.UUID      `json:"lab_id"`
	TestGroupID        *uuid.UUID     `json:"test_group_id"`
	TestCode           *string        `json:"test_code"`
	TestName           string         `json:"test_name"`
	SampleID           *string        `json:"sample_id"`
	QCSummary          *string        `json:"qc_summary"`
	RawPayload         map[string]any `json:"raw_payload"`
	Status             Status         `json:"status"`
	CreatedBy          string         `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	CommittedAt        *time.Time     `json:"committed_at"`
}

// ProcessCommand is the inbound intake payload from the workflow runner.
// Results holds the free-form raw fields entered or captured at the bench.
type ProcessCommand struct {
	WorkflowInstanceID uuid.UUID      `json:"workflow_instance_id"`
	StepID             int            `json:"step_id"`
	OrderID            uuid.UUID      `json:"order_id"`
	PatientID          uuid.UUID      `json:"patient_id"`
	LabID              uuid.UUID      `json:"lab_id"`
	TestGroupID        *uuid.UUID     `json:"test_group_id,omitempty"`
	TestCode           *string        `json:"test_code,omitempty"`
	TestName           string         `json:"test_name"`
	SampleID           *string        `json:"sample_id,omitempty"`
	QCSummary          *string        `json:"qc_summary,omitempty"`
	Results            map[string]any `json:"results"`
	CreatedBy          string         `json:"created_by"`
}

// ProcessResponse is the pipeline outcome returned to the caller. Fail is a
// domain outcome, not a transport error, so it still rides a 200. ResultID
// is absent when the commit was blocked.
type ProcessResponse struct {
	Status           string        `json:"status"`
	WorkflowResultID uuid.UUID     `json:"workflow_result_id"`
	ResultID         *uuid.UUID    `json:"result_id,omitempty"`
	Issues           []audit.Issue `json:"issues,omitempty"`
}

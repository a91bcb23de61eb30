// Package pipeline implements the workflow result processing pipeline for
// assay. One invocation takes a raw submission end to end: binding
// resolution, sequential extraction tasks, raw-field merge, AI parsing into
// the canonical analyte shape, deterministic and AI validation, a blocking
// decision, and an atomic commit. The flow is expressed as a state graph
// with conditional edges; each invocation owns its state and shares nothing
// with concurrent submissions.
package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/audit"
)

// State keys used to pass data between graph nodes.
const (
	KeyRequest    = "request"
	KeyResolution = "resolution"
	KeyTasks      = "tasks"
	KeyPartial    = "partial"
	KeyCanonical  = "canonical"
	KeyIssues     = "issues"
	KeyAIStatus   = "ai_status"
	KeyBlocked    = "blocked"
	KeyResultID   = "result_id"
	KeyOutcome    = "outcome"
)

// Request carries one submission into a pipeline invocation.
type Request struct {
	SubmissionID       uuid.UUID
	WorkflowInstanceID uuid.UUID
	StepID             int
	OrderID            uuid.UUID
	PatientID          uuid.UUID
	LabID              uuid.UUID
	TestGroupID        *uuid.UUID
	TestCode           *string
	TestName           string
	QCSummary          *string
	Raw                map[string]any
}

// Scalar is an analyte value that unmarshals from a JSON string, number, or
// boolean. Models are told to emit strings but do not always comply.
type Scalar string

func (v *Scalar) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Scalar(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Scalar(strconv.FormatBool(b))
		return nil
	}

	return fmt.Errorf("scalar value expected, got %s", data)
}

// Float reports the value as a float64 when it parses as one.
func (v Scalar) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(v), 64)
	return f, err == nil
}

// Analyte is one normalized measurement.
type Analyte struct {
	Value Scalar `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Canonical is the strict shape every extraction path converges to.
type Canonical struct {
	Meta     map[string]any     `json:"meta"`
	Analytes map[string]Analyte `json:"analytes"`
}

// Status is the domain outcome of a pipeline run.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Outcome is the final pipeline result handed back to the submission layer.
// ResultID is nil when the commit was blocked.
type Outcome struct {
	Status   Status
	Blocked  bool
	ResultID *uuid.UUID
	Issues   []audit.Issue
}

// scalarString renders a raw payload value as a string when it is a JSON
// scalar. Arrays and objects report false and are never merged.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

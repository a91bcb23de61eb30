// Package audit implements the audit trail domain for assay. Every pipeline
// run leaves a reconstructable record: one row per extraction task attempt,
// one row per model call, and one row per validation issue, all keyed by
// submission. Records are append-only.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus indicates whether an extraction task attempt succeeded.
type RunStatus string

const (
	RunOK    RunStatus = "ok"
	RunError RunStatus = "error"
)

// Severity classifies a validation issue. Error-severity issues can block
// a commit; warnings never do.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// TaskRunRecord captures one extraction task attempt with its inputs,
// outputs, and timing.
type TaskRunRecord struct {
	ID           uuid.UUID      `json:"id"`
	SubmissionID uuid.UUID      `json:"submission_id"`
	TaskID       uuid.UUID      `json:"task_id"`
	Status       RunStatus      `json:"status"`
	Input        map[string]any `json:"input"`
	Output       map[string]any `json:"output"`
	Error        *string        `json:"error,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

// InferenceCallRecord captures one model invocation. Kind identifies the
// pipeline stage that made the call (parser, validator, or a task type).
type InferenceCallRecord struct {
	ID           uuid.UUID      `json:"id"`
	SubmissionID uuid.UUID      `json:"submission_id"`
	Kind         string         `json:"kind"`
	Model        string         `json:"model"`
	Request      map[string]any `json:"request"`
	Response     map[string]any `json:"response"`
	Success      bool           `json:"success"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Issue is one validation finding against a submission.
type Issue struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Severity     Severity  `json:"severity"`
	Field        string    `json:"field"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	Suggestion   *string   `json:"suggestion,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

package audit

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for audit trail operations.
type System interface {
	Handler() *Handler

	// RecordTaskRun persists one extraction task attempt.
	RecordTaskRun(ctx context.Context, rec TaskRunRecord) error

	// RecordInference persists one model call.
	RecordInference(ctx context.Context, rec InferenceCallRecord) error

	// RecordIssues persists a batch of validation issues for a submission
	// in a single transaction. Empty batches are a no-op.
	RecordIssues(ctx context.Context, submissionID uuid.UUID, issues []Issue) error

	TaskRuns(ctx context.Context, submissionID uuid.UUID) ([]TaskRunRecord, error)
	Inferences(ctx context.Context, submissionID uuid.UUID) ([]InferenceCallRecord, error)
	Issues(ctx context.Context, submissionID uuid.UUID) ([]Issue, error)
}

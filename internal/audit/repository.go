package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "audit"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func encodeObject(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (r *repo) RecordTaskRun(ctx context.Context, rec TaskRunRecord) error {
	input, err := encodeObject(rec.Input)
	if err != nil {
		return fmt.Errorf("encode task input: %w", err)
	}
	output, err := encodeObject(rec.Output)
	if err != nil {
		return fmt.Errorf("encode task output: %w", err)
	}

	q := `
		INSERT INTO task_run_records (submission_id, task_id, status, input, output, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, q,
		rec.SubmissionID, rec.TaskID, rec.Status, input, output, rec.Error, rec.DurationMS,
	); err != nil {
		return fmt.Errorf("record task run: %w", err)
	}

	return nil
}

func (r *repo) RecordInference(ctx context.Context, rec InferenceCallRecord) error {
	request, err := encodeObject(rec.Request)
	if err != nil {
		return fmt.Errorf("encode inference request: %w", err)
	}
	response, err := encodeObject(rec.Response)
	if err != nil {
		return fmt.Errorf("encode inference response: %w", err)
	}

	q := `
		INSERT INTO inference_call_records (submission_id, kind, model, request, response, success, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, q,
		rec.SubmissionID, rec.Kind, rec.Model, request, response, rec.Success, rec.DurationMS,
	); err != nil {
		return fmt.Errorf("record inference call: %w", err)
	}

	return nil
}

func (r *repo) RecordIssues(ctx context.Context, submissionID uuid.UUID, issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}

	for _, issue := range issues {
		if issue.Severity != SeverityError && issue.Severity != SeverityWarn {
			return fmt.Errorf("%w: %q", ErrInvalidSeverity, issue.Severity)
		}
	}

	q := `
		INSERT INTO validation_issues (submission_id, severity, field, code, message, suggestion)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, issue := range issues {
			if _, err := tx.ExecContext(ctx, q,
				submissionID, issue.Severity, issue.Field, issue.Code, issue.Message, issue.Suggestion,
			); err != nil {
				return struct{}{}, fmt.Errorf("record issue %s/%s: %w", issue.Field, issue.Code, err)
			}
		}
		return struct{}{}, nil
	})

	return err
}

func (r *repo) TaskRuns(ctx context.Context, submissionID uuid.UUID) ([]TaskRunRecord, error) {
	q := `
		SELECT id, submission_id, task_id, status, input, output, error, duration_ms, created_at
		FROM task_run_records
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	runs, err := repository.QueryMany(ctx, r.db, q, []any{submissionID}, scanTaskRun)
	if err != nil {
		return nil, fmt.Errorf("query task runs: %w", err)
	}
	return runs, nil
}

func (r *repo) Inferences(ctx context.Context, submissionID uuid.UUID) ([]InferenceCallRecord, error) {
	q := `
		SELECT id, submission_id, kind, model, request, response, success, duration_ms, created_at
		FROM inference_call_records
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	calls, err := repository.QueryMany(ctx, r.db, q, []any{submissionID}, scanInference)
	if err != nil {
		return nil, fmt.Errorf("query inference calls: %w", err)
	}
	return calls, nil
}

func (r *repo) Issues(ctx context.Context, submissionID uuid.UUID) ([]Issue, error) {
	q := `
		SELECT id, submission_id, severity, field, code, message, suggestion, created_at
		FROM validation_issues
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	issues, err := repository.QueryMany(ctx, r.db, q, []any{submissionID}, scanIssue)
	if err != nil {
		return nil, fmt.Errorf("query validation issues: %w", err)
	}
	return issues, nil
}

package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/pipeline"
	"github.com/dranandnandi/assay/pkg/pagination"
	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *pipeline.Runtime
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a submission repository implementing the System interface.
// The pipeline runtime is constructed by higher-level composition code.
func New(
	db *sql.DB,
	rt *pipeline.Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		logger:     logger.With("system", "submissions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Submission], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TestName", "TestCode")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Submission, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sub, err := repository.QueryOne(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &sub, nil
}

func (r *repo) Process(ctx context.Context, cmd ProcessCommand) (*ProcessResponse, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	sub, err := r.upsertIntake(ctx, cmd)
	if err != nil {
		return nil, err
	}

	outcome, err := pipeline.Execute(ctx, r.rt, pipeline.Request{
		SubmissionID:       sub.ID,
		WorkflowInstanceID: sub.WorkflowInstanceID,
		StepID:             sub.StepID,
		OrderID:            sub.OrderID,
		PatientID:          sub.PatientID,
		LabID:              sub.LabID,
		TestGroupID:        sub.TestGroupID,
		TestCode:           sub.TestCode,
		TestName:           sub.TestName,
		QCSummary:          sub.QCSummary,
		Raw:                sub.RawPayload,
	})
	if err != nil {
		r.markError(ctx, sub.ID)
		return nil, fmt.Errorf("process submission %s: %w", sub.ID, err)
	}

	if outcome.Blocked {
		r.markError(ctx, sub.ID)
		return &ProcessResponse{
			Status:           string(outcome.Status),
			WorkflowResultID: sub.ID,
			Issues:           outcome.Issues,
		}, nil
	}

	if err := r.markCommitted(ctx, sub.ID); err != nil {
		return nil, err
	}

	r.logger.Info("submission processed",
		"submission_id", sub.ID,
		"status", outcome.Status,
		"result_id", outcome.ResultID,
	)

	return &ProcessResponse{
		Status:           string(outcome.Status),
		WorkflowResultID: sub.ID,
		ResultID:         outcome.ResultID,
		Issues:           outcome.Issues,
	}, nil
}

// upsertIntake writes the submission row, keyed by
// (workflow_instance_id, step_id). Re-submission overwrites the payload and
// resets the row to received with committed_at cleared.
func (r *repo) upsertIntake(ctx context.Context, cmd ProcessCommand) (*Submission, error) {
	payload := cmd.Results
	if payload == nil {
		payload = map[string]any{}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode results: %w", ErrInvalidPayload, err)
	}

	q := `
		INSERT INTO submissions(
			workflow_instance_id, step_id, order_id, patient_id, lab_id,
			test_group_id, test_code, test_name, sample_id, qc_summary,
			raw_payload, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (workflow_instance_id, step_id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			patient_id = EXCLUDED.patient_id,
			lab_id = EXCLUDED.lab_id,
			test_group_id = EXCLUDED.test_group_id,
			test_code = EXCLUDED.test_code,
			test_name = EXCLUDED.test_name,
			sample_id = EXCLUDED.sample_id,
			qc_summary = EXCLUDED.qc_summary,
			raw_payload = EXCLUDED.raw_payload,
			created_by = EXCLUDED.created_by,
			status = 'received',
			committed_at = NULL
		RETURNING id, workflow_instance_id, step_id, order_id, patient_id, lab_id,
				  test_group_id, test_code, test_name, sample_id, qc_summary,
				  raw_payload, status, created_by, created_at, committed_at`

	args := []any{
		cmd.WorkflowInstanceID,
		cmd.StepID,
		cmd.OrderID,
		cmd.PatientID,
		cmd.LabID,
		cmd.TestGroupID,
		cmd.TestCode,
		cmd.TestName,
		cmd.SampleID,
		cmd.QCSummary,
		raw,
		cmd.CreatedBy,
	}

	sub, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Submission, error) {
		return repository.QueryOne(ctx, tx, q, args, scanSubmission)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("submission received",
		"submission_id", sub.ID,
		"workflow_instance_id", sub.WorkflowInstanceID,
		"step", sub.StepID,
	)

	return &sub, nil
}

func (r *repo) markCommitted(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db,
		"UPDATE submissions SET status = 'committed', committed_at = NOW() WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("mark submission committed: %w", err)
	}
	return nil
}

// markError is best-effort: the pipeline failure being reported matters
// more than the status write that records it.
func (r *repo) markError(ctx context.Context, id uuid.UUID) {
	err := repository.ExecExpectOne(ctx, r.db,
		"UPDATE submissions SET status = 'error' WHERE id = $1",
		id,
	)
	if err != nil {
		r.logger.Warn("submission error status write failed", "submission_id", id, "error", err)
	}
}

func validateCommand(cmd ProcessCommand) error {
	switch {
	case cmd.WorkflowInstanceID == uuid.Nil:
		return fmt.Errorf("%w: workflow_instance_id is required", ErrInvalidPayload)
	case cmd.StepID < 1:
		return fmt.Errorf("%w: step_id must be positive", ErrInvalidPayload)
	case cmd.OrderID == uuid.Nil:
		return fmt.Errorf("%w: order_id is required", ErrInvalidPayload)
	case cmd.PatientID == uuid.Nil:
		return fmt.Errorf("%w: patient_id is required", ErrInvalidPayload)
	case cmd.LabID == uuid.Nil:
		return fmt.Errorf("%w: lab_id is required", ErrInvalidPayload)
	case cmd.TestGroupID == nil && cmd.TestCode == nil:
		return fmt.Errorf("%w: test_group_id or test_code is required", ErrInvalidPayload)
	case cmd.TestName == "":
		return fmt.Errorf("%w: test_name is required", ErrInvalidPayload)
	case cmd.CreatedBy == "":
		return fmt.Errorf("%w: created_by is required", ErrInvalidPayload)
	}
	return nil
}

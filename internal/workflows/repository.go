package workflows

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/pagination"
	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a workflow configuration repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "workflows"),
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
) (*pagination.PageResult[Binding], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TestCode")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count bindings: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	bindings, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanBinding)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}

	result := pagination.NewPageResult(bindings, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Binding, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	b, err := repository.QueryOne(ctx, r.db, q, args, scanBinding)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &b, nil
}

func (r *repo) Resolve(
	ctx context.Context,
	labID uuid.UUID,
	testGroupID *uuid.UUID,
	testCode *string,
) (*Resolution, error) {
	binding, err := r.resolveBinding(ctx, labID, testGroupID, testCode)
	if err != nil {
		return nil, err
	}

	cfg, err := r.Config(ctx, binding.WorkflowVersionID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("workflow resolved",
		"lab_id", labID,
		"binding_id", binding.ID,
		"workflow_version_id", binding.WorkflowVersionID,
	)

	return &Resolution{
		WorkflowVersionID: binding.WorkflowVersionID,
		Config:            *cfg,
	}, nil
}

func (r *repo) resolveBinding(
	ctx context.Context,
	labID uuid.UUID,
	testGroupID *uuid.UUID,
	testCode *string,
) (*Binding, error) {
	isDefault := true
	active := true

	if testGroupID != nil {
		q, args := query.
			NewBuilder(projection, defaultSort).
			WhereEquals("LabID", labID).
			WhereEquals("TestGroupID", testGroupID).
			WhereEquals("IsDefault", &isDefault).
			WhereEquals("Active", &active).
			BuildSingleOrNull()

		b, err := repository.QueryOne(ctx, r.db, q, args, scanBinding)
		if err == nil {
			return &b, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resolve by test group: %w", err)
		}
	}

	if testCode != nil {
		q, args := query.
			NewBuilder(projection, defaultSort).
			WhereEquals("LabID", labID).
			WhereEquals("TestCode", testCode).
			WhereEquals("IsDefault", &isDefault).
			WhereEquals("Active", &active).
			BuildSingleOrNull()

		b, err := repository.QueryOne(ctx, r.db, q, args, scanBinding)
		if err == nil {
			return &b, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resolve by test code: %w", err)
		}
	}

	return nil, ErrConfigNotFound
}

func (r *repo) Config(ctx context.Context, versionID uuid.UUID) (*AIConfig, error) {
	q := `
		SELECT workflow_version_id, parser_prompt, validator_prompt,
		       analyte_map, unit_map, required_fields, numeric_rules, enum_rules
		FROM workflow_ai_configs
		WHERE workflow_version_id = $1`

	c, err := repository.QueryOne(ctx, r.db, q, []any{versionID}, scanConfig)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("query ai config: %w", err)
	}
	return &c, nil
}

func (r *repo) Tasks(ctx context.Context, versionID uuid.UUID) ([]Task, error) {
	q := `
		SELECT id, workflow_version_id, run_order, type,
		       input_selector, params, output_map, enabled, tool_url
		FROM workflow_tasks
		WHERE workflow_version_id = $1 AND enabled = true
		ORDER BY run_order ASC`

	tasks, err := repository.QueryMany(ctx, r.db, q, []any{versionID}, scanTask)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return tasks, nil
}

func (r *repo) Instance(ctx context.Context, id uuid.UUID) (*Instance, error) {
	q := `
		SELECT id, workflow_version_id, current_step, step_count, completed_at, created_at
		FROM workflow_instances
		WHERE id = $1`

	i, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanInstance)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &i, nil
}

func (r *repo) Advance(ctx context.Context, instanceID uuid.UUID, stepID int) error {
	q := `
		UPDATE workflow_instances
		SET current_step = current_step + 1,
		    completed_at = CASE
		        WHEN current_step >= step_count THEN NOW()
		        ELSE completed_at
		    END
		WHERE id = $1 AND current_step = $2 AND completed_at IS NULL`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, q, instanceID, stepID)
		if err == nil {
			return struct{}{}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, err
		}

		// zero rows affected: tell a finished instance apart from a
		// stale step pointer before reporting
		iq := `
			SELECT id, workflow_version_id, current_step, step_count, completed_at, created_at
			FROM workflow_instances
			WHERE id = $1`

		i, ierr := repository.QueryOne(ctx, tx, iq, []any{instanceID}, scanInstance)
		if ierr != nil {
			return struct{}{}, repository.MapError(ierr, ErrNotFound, ErrDuplicate)
		}

		if i.CompletedAt != nil {
			return struct{}{}, ErrInstanceDone
		}

		return struct{}{}, fmt.Errorf(
			"%w: instance %s is at step %d, advance requested step %d",
			ErrStaleStep, instanceID, i.CurrentStep, stepID,
		)
	})

	if err != nil {
		if errors.Is(err, ErrInstanceDone) || errors.Is(err, ErrStaleStep) || errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("advance instance %s: %w", instanceID, err)
	}

	r.logger.Info("workflow instance advanced", "instance_id", instanceID, "step", stepID)
	return nil
}

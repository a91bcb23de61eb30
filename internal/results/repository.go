package results

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

// New creates a canonical result repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "results"),
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
) (*pagination.PageResult[Result], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TestName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanResult)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Result, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	res, err := repository.QueryOne(ctx, r.db, q, args, scanResult)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	values, err := r.values(ctx, r.db, res.ID)
	if err != nil {
		return nil, err
	}
	res.Values = values

	return &res, nil
}

func (r *repo) ByOrder(ctx context.Context, orderID uuid.UUID) ([]Result, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrderID", orderID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanResult)
	if err != nil {
		return nil, fmt.Errorf("query order results: %w", err)
	}

	for i := range items {
		values, err := r.values(ctx, r.db, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Values = values
	}

	return items, nil
}

func (r *repo) Commit(ctx context.Context, cmd CommitCommand) (*Result, error) {
	if len(cmd.Values) == 0 && cmd.QCSummary == nil {
		return nil, ErrNoValues
	}

	upsert := `
		INSERT INTO canonical_results (order_id, test_name, submission_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, test_name)
		DO UPDATE SET submission_id = EXCLUDED.submission_id, updated_at = NOW()
		RETURNING id, order_id, test_name, submission_id, created_at, updated_at`

	insertValue := `
		INSERT INTO canonical_result_values (result_id, name, value, unit, reference_range, flag)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, result_id, name, value, unit, reference_range, flag`

	res, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Result, error) {
		res, err := repository.QueryOne(ctx, tx, upsert,
			[]any{cmd.OrderID, cmd.TestName, cmd.SubmissionID}, scanResult)
		if err != nil {
			return res, fmt.Errorf("upsert result: %w", err)
		}

		// full replace: stale analytes must not survive a recommit
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM canonical_result_values WHERE result_id = $1", res.ID,
		); err != nil {
			return res, fmt.Errorf("clear result values: %w", err)
		}

		rows := make([]ValueInput, 0, len(cmd.Values)+1)
		rows = append(rows, cmd.Values...)
		if cmd.QCSummary != nil && *cmd.QCSummary != "" {
			rows = append(rows, ValueInput{Name: QCSummaryName, Value: *cmd.QCSummary})
		}

		values := make([]Value, 0, len(rows))
		for _, in := range rows {
			if err := r.fillFromCatalog(ctx, tx, &in); err != nil {
				return res, err
			}

			v, err := repository.QueryOne(ctx, tx, insertValue,
				[]any{res.ID, in.Name, in.Value, in.Unit, in.ReferenceRange, in.Flag}, scanValue)
			if err != nil {
				return res, fmt.Errorf("insert value %q: %w", in.Name, err)
			}
			values = append(values, v)
		}

		res.Values = values
		return res, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("result committed",
		"order_id", res.OrderID,
		"test_name", res.TestName,
		"submission_id", cmd.SubmissionID,
		"values", len(res.Values),
	)

	return &res, nil
}

func (r *repo) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	q := `
		SELECT name, unit, reference_range
		FROM analyte_catalog
		ORDER BY name ASC`

	entries, err := repository.QueryMany(ctx, r.db, q, nil, scanCatalogEntry)
	if err != nil {
		return nil, fmt.Errorf("query analyte catalog: %w", err)
	}
	return entries, nil
}

// fillFromCatalog backfills unit and reference range from the analyte
// catalog when the input left them nil. A missing catalog row is fine.
func (r *repo) fillFromCatalog(ctx context.Context, tx *sql.Tx, in *ValueInput) error {
	if in.Unit != nil && in.ReferenceRange != nil {
		return nil
	}

	entry, err := repository.QueryOne(ctx, tx,
		"SELECT name, unit, reference_range FROM analyte_catalog WHERE name = $1",
		[]any{in.Name}, scanCatalogEntry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("query catalog entry %q: %w", in.Name, err)
	}

	if in.Unit == nil {
		in.Unit = entry.Unit
	}
	if in.ReferenceRange == nil {
		in.ReferenceRange = entry.ReferenceRange
	}

	return nil
}

func (r *repo) values(ctx context.Context, q repository.Querier, resultID uuid.UUID) ([]Value, error) {
	sqlQ := `
		SELECT id, result_id, name, value, unit, reference_range, flag
		FROM canonical_result_values
		WHERE result_id = $1
		ORDER BY name ASC`

	values, err := repository.QueryMany(ctx, q, sqlQ, []any{resultID}, scanValue)
	if err != nil {
		return nil, fmt.Errorf("query result values: %w", err)
	}
	return values, nil
}

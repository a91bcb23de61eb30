package results

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "canonical_results", "r").
	Project("id", "ID").
	Project("order_id", "OrderID").
	Project("test_name", "TestName").
	Project("submission_id", "SubmissionID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for result queries.
// Nil fields are ignored. TestName uses case-insensitive contains matching.
type Filters struct {
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	TestName     *string    `json:"test_name,omitempty"`
	SubmissionID *uuid.UUID `json:"submission_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OrderID", f.OrderID).
		WhereContains("TestName", f.TestName).
		WhereEquals("SubmissionID", f.SubmissionID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("order_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OrderID = &id
		}
	}

	if v := values.Get("test_name"); v != "" {
		f.TestName = &v
	}

	if v := values.Get("submission_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.SubmissionID = &id
		}
	}

	return f
}

func scanResult(s repository.Scanner) (Result, error) {
	var r Result
	err := s.Scan(
		&r.ID,
		&r.OrderID,
		&r.TestName,
		&r.SubmissionID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func scanValue(s repository.Scanner) (Value, error) {
	var v Value
	err := s.Scan(
		&v.ID,
		&v.ResultID,
		&v.Name,
		&v.Value,
		&v.Unit,
		&v.ReferenceRange,
		&v.Flag,
	)
	return v, err
}

func scanCatalogEntry(s repository.Scanner) (CatalogEntry, error) {
	var c CatalogEntry
	err := s.Scan(&c.Name, &c.Unit, &c.ReferenceRange)
	return c, err
}

// Package results implements the canonical result domain for assay.
// A canonical result is the single published record for one test on one
// order. Committing replaces the full value set atomically, so readers
// never observe a half-written mix of old and new analytes.
package results

import (
	"time"

	"github.com/google/uuid"
)

// Result is the published record for one test on one order. SubmissionID
// points at the submission whose commit produced the current values.
type Result struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      uuid.UUID  `json:"order_id"`
	TestName     string     `json:"test_name"`
	SubmissionID *uuid.UUID `json:"submission_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Values       []Value    `json:"values,omitempty"`
}

// Value is one analyte row within a canonical result.
type Value struct {
	ID             uuid.UUID `json:"id"`
	ResultID       uuid.UUID `json:"result_id"`
	Name           string    `json:"name"`
	Value          string    `json:"value"`
	Unit           *string   `json:"unit"`
	ReferenceRange *string   `json:"reference_range"`
	Flag           *string   `json:"flag"`
}

// ValueInput carries one analyte into a commit. Unit and ReferenceRange
// fall back to the analyte catalog when nil.
type ValueInput struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Unit           *string `json:"unit,omitempty"`
	ReferenceRange *string `json:"reference_range,omitempty"`
	Flag           *string `json:"flag,omitempty"`
}

// CommitCommand carries everything needed to publish a submission's values.
// A non-nil QCSummary adds a synthetic summary row alongside the analytes.
type CommitCommand struct {
	OrderID      uuid.UUID
	TestName     string
	SubmissionID uuid.UUID
	Values       []ValueInput
	QCSummary    *string
}

// CatalogEntry is one analyte's reference metadata, keyed by canonical name.
type CatalogEntry struct {
	Name           string  `json:"name"`
	Unit           *string `json:"unit"`
	ReferenceRange *string `json:"reference_range"`
}

// QCSummaryName is the reserved analyte name for the synthetic QC row.
const QCSummaryName = "QC Summary"

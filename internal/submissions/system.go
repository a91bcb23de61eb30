package submissions

import (
	"context"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/pagination"
)

// System defines the public contract for submission domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Submission], error)

	Find(ctx context.Context, id uuid.UUID) (*Submission, error)

	// Process upserts the intake row, runs the processing pipeline, and
	// writes the final status. A blocked commit is a normal response with
	// status "fail"; only fatal pipeline errors return a Go error.
	Process(ctx context.Context, cmd ProcessCommand) (*ProcessResponse, error)
}

package results

import (
	"context"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/pagination"
)

// System defines the public contract for canonical result operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Result], error)

	// Find returns a result with its values loaded.
	Find(ctx context.Context, id uuid.UUID) (*Result, error)

	// ByOrder returns all results for an order with their values loaded.
	ByOrder(ctx context.Context, orderID uuid.UUID) ([]Result, error)

	// Commit publishes a submission's values as the canonical record for
	// (order, test). Recommits replace the full value set in one
	// transaction. Units and reference ranges absent from the input are
	// filled from the analyte catalog.
	Commit(ctx context.Context, cmd CommitCommand) (*Result, error)

	// Catalog returns the analyte reference metadata, ordered by name.
	Catalog(ctx context.Context) ([]CatalogEntry, error)
}

package workflows

import (
	"context"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/pagination"
)

// System defines the public contract for workflow configuration operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Binding], error)

	Find(ctx context.Context, id uuid.UUID) (*Binding, error)

	// Resolve finds the workflow version handling the given lab and test,
	// preferring the highest-priority default binding for the test group and
	// falling back to one keyed by test code. Returns ErrConfigNotFound when
	// no binding or no AI configuration exists for the resolved version.
	Resolve(ctx context.Context, labID uuid.UUID, testGroupID *uuid.UUID, testCode *string) (*Resolution, error)

	// Config returns the AI configuration for a workflow version.
	Config(ctx context.Context, versionID uuid.UUID) (*AIConfig, error)

	// Tasks returns the enabled tasks for a workflow version ordered by run_order.
	Tasks(ctx context.Context, versionID uuid.UUID) ([]Task, error)

	Instance(ctx context.Context, id uuid.UUID) (*Instance, error)

	// Advance moves the instance's step pointer past the given step, stamping
	// completion when the step is terminal. A stale step pointer is a no-op error.
	Advance(ctx context.Context, instanceID uuid.UUID, stepID int) error
}

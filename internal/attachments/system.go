package attachments

import (
	"context"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/pagination"
	"github.com/dranandnandi/assay/pkg/storage"
)

// System defines the public contract for attachment domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Attachment], error)

	Find(ctx context.Context, id uuid.UUID) (*Attachment, error)

	// FindByTag returns the most recently uploaded attachment with the given
	// tag for an order. Extraction tasks select their input this way.
	FindByTag(ctx context.Context, orderID uuid.UUID, tag string) (*Attachment, error)

	Create(ctx context.Context, cmd CreateCommand) (*Attachment, error)

	// CreateBatch uploads multiple files concurrently, reporting per-file
	// outcomes. One file failing does not abort the rest.
	CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult

	// Download streams the attachment's blob content.
	Download(ctx context.Context, id uuid.UUID) (*Attachment, *storage.DownloadResult, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

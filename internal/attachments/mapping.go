package attachments

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/pkg/query"
	"github.com/dranandnandi/assay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "attachments", "a").
	Project("id", "ID").
	Project("order_id", "OrderID").
	Project("tag", "Tag").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for attachment queries.
// Nil fields are ignored. OrderID, Tag, and ContentType use exact matching.
// Filename uses case-insensitive contains matching.
type Filters struct {
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	Tag         *string    `json:"tag,omitempty"`
	Filename    *string    `json:"filename,omitempty"`
	ContentType *string    `json:"content_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OrderID", f.OrderID).
		WhereEquals("Tag", f.Tag).
		WhereContains("Filename", f.Filename).
		WhereEquals("ContentType", f.ContentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("order_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OrderID = &id
		}
	}

	if v := values.Get("tag"); v != "" {
		f.Tag = &v
	}

	if v := values.Get("filename"); v != "" {
		f.Filename = &v
	}

	if v := values.Get("content_type"); v != "" {
		f.ContentType = &v
	}

	return f
}

func scanAttachment(s repository.Scanner) (Attachment, error) {
	var a Attachment
	err := s.Scan(
		&a.ID,
		&a.OrderID,
		&a.Tag,
		&a.Filename,
		&a.ContentType,
		&a.SizeBytes,
		&a.PageCount,
		&a.StorageKey,
		&a.UploadedAt,
	)
	return a, err
}

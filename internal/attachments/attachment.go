// Package attachments implements the attachment domain for assay.
// It provides types, data access, and business logic for uploading
// order-scoped files (instrument photos, scanned reports, raw exports),
// tagging them for task input selection, and blob storage integration.
package attachments

import (
	"time"

	"github.com/google/uuid"
)

// Attachment represents an uploaded file tied to a lab order. Tag identifies
// the file's role so extraction tasks can select their input by tag.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	Tag         string    `json:"tag"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries the data needed to upload and register an attachment.
// Data holds the raw file bytes. PageCount is optional and may be extracted
// by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	OrderID     uuid.UUID
	Tag         string
	Filename    string
	ContentType string
	PageCount   *int
}

// BatchResult reports the outcome of a single file within a batch upload.
// On success, Attachment is populated and Error is empty.
// On failure, Error describes the problem and Attachment is nil.
type BatchResult struct {
	Attachment *Attachment `json:"attachment,omitempty"`
	Filename   string      `json:"filename"`
	Error      string      `json:"error,omitempty"`
}

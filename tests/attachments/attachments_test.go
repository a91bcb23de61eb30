package attachments_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/dranandnandi/assay/internal/attachments"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", attachments.ErrNotFound, http.StatusNotFound},
		{"duplicate", attachments.ErrDuplicate, http.StatusConflict},
		{"file too large", attachments.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", attachments.ErrInvalidFile, http.StatusBadRequest},
		{"missing tag", attachments.ErrMissingTag, http.StatusBadRequest},
		{"wrapped missing tag", fmt.Errorf("upload: %w", attachments.ErrMissingTag), http.StatusBadRequest},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attachments.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		orderID := uuid.New()
		values := url.Values{
			"order_id":     {orderID.String()},
			"tag":          {"strip_photo"},
			"filename":     {"strip"},
			"content_type": {"image/png"},
		}

		f := attachments.FiltersFromQuery(values)

		if f.OrderID == nil || *f.OrderID != orderID {
			t.Errorf("OrderID = %v, want %s", f.OrderID, orderID)
		}
		if f.Tag == nil || *f.Tag != "strip_photo" {
			t.Errorf("Tag = %v, want strip_photo", f.Tag)
		}
		if f.Filename == nil || *f.Filename != "strip" {
			t.Errorf("Filename = %v, want strip", f.Filename)
		}
		if f.ContentType == nil || *f.ContentType != "image/png" {
			t.Errorf("ContentType = %v, want image/png", f.ContentType)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := attachments.FiltersFromQuery(url.Values{})
		if f.OrderID != nil || f.Tag != nil || f.Filename != nil || f.ContentType != nil {
			t.Errorf("expected all nil fields, got %+v", f)
		}
	})
}

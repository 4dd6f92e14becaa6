package api

import (
	"context"
	"io"
)

// BulkResult summarizes a CSV ingestion run.
type BulkResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// UploadResult is the stored location of an uploaded binary.
type UploadResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BulkTemplate downloads the CSV template for an entity family ("users",
// "colleges", ...). The caller owns the returned stream.
func (c *Client) BulkTemplate(ctx context.Context, entity string) (*Download, error) {
	return c.Download(ctx, "/bulk-upload/"+entity+"/template", nil)
}

// BulkImport uploads a CSV for ingestion into an entity family.
func (c *Client) BulkImport(ctx context.Context, entity, filename string, content io.Reader) (*BulkResult, error) {
	var result BulkResult
	err := c.Upload(ctx, "/bulk-upload/"+entity, "file", filename, content, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadImage stores an image (profile photo, college logo) and returns its
// served URL.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	var result UploadResult
	err := c.Upload(ctx, "/uploads/images", "image", filename, content, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

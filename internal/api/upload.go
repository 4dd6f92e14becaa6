package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Upload sends a binary payload (image, CSV) as multipart/form-data. The
// multipart writer chooses the boundary and content type; the bearer token is
// attached the same way as for JSON requests. Extra form fields accompany the
// file part.
func (c *Client) Upload(ctx context.Context, path, field, filename string, content io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("creating multipart file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copying upload content: %w", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("writing multipart field %q: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.send(req, http.MethodPost, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decodeResponse(resp, http.MethodPost, path, out)
}

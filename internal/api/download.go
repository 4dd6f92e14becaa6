package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Download is a binary response (CSV template, export, certificate) streamed
// from the backend. The caller owns Body and must close it; SaveTo does both.
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// Download fetches a binary endpoint. The suggested filename is taken from
// the Content-Disposition header when present, falling back to the last path
// segment.
func (c *Client) Download(ctx context.Context, path string, params Params) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.send(req, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename:    downloadFilename(resp, path),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// SaveTo writes the download to dir under its suggested filename, closing
// the body. It returns the full path of the written file.
func (d *Download) SaveTo(dir string) (string, error) {
	defer d.Body.Close()

	target := filepath.Join(dir, filepath.Base(d.Filename))
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating download target: %w", err)
	}

	if _, err := io.Copy(f, d.Body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("writing download: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing download target: %w", err)
	}
	return target, nil
}

func downloadFilename(resp *http.Response, path string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return filepath.Base(path)
}

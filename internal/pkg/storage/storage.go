package storage

import (
	"context"
	"io"
	"time"
)

// FileStorage keeps rendered documents such as payslip PDFs.
type FileStorage interface {
	// Upload stores the content under path and returns the stored key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download opens a stored file
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// GetURL returns a link to a stored file
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}

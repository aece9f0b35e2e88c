package storage

import (
	"context"
	"io"
)

// Provider stores finished exports.
type Provider interface {
	// StreamToFile returns a writer whose data is streamed to key. The channel
	// receives exactly one error (or nil) once the object is stored, after the
	// writer has been closed.
	StreamToFile(ctx context.Context, key, contentType string) (io.WriteCloser, <-chan error)

	// OpenFile opens a stored export for reading.
	OpenFile(ctx context.Context, key string) (io.ReadCloser, error)

	// GetDownloadURL returns a locator for the stored export.
	GetDownloadURL(key string) string
}

// Aborter is implemented by writers returned from StreamToFile that can
// discard a partially written object instead of storing it.
type Aborter interface {
	CloseWithError(err error) error
}

// Abort discards w's object when w supports it and closes it otherwise.
// The provider's error channel then receives err (or the upload failure).
func Abort(w io.WriteCloser, err error) error {
	if a, ok := w.(Aborter); ok {
		return a.CloseWithError(err)
	}
	return w.Close()
}

// ContentType maps an export file extension to its MIME type.
func ContentType(ext string, gzipped bool) string {
	if gzipped {
		return "application/gzip"
	}
	switch ext {
	case "jsonl":
		return "application/x-ndjson"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		return "application/pdf"
	default:
		return "text/csv"
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider writes exports below a base directory.
type LocalProvider struct {
	basePath string
}

func NewLocalProvider(basePath string) (*LocalProvider, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalProvider{basePath: basePath}, nil
}

// resolve rejects keys that would escape the base directory.
func (p *LocalProvider) resolve(key string) (string, error) {
	full := filepath.Join(p.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(p.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return full, nil
}

func (p *LocalProvider) StreamToFile(_ context.Context, key, _ string) (io.WriteCloser, <-chan error) {
	errChan := make(chan error, 1)
	fail := func(err error) (io.WriteCloser, <-chan error) {
		errChan <- err
		close(errChan)
		return nil, errChan
	}

	fullPath, err := p.resolve(key)
	if err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fail(fmt.Errorf("failed to create directory for %s: %w", key, err))
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return fail(fmt.Errorf("failed to create file %s: %w", fullPath, err))
	}
	return &localWriter{f: f, errChan: errChan}, errChan
}

func (p *LocalProvider) OpenFile(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := p.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (p *LocalProvider) GetDownloadURL(key string) string {
	abs, err := filepath.Abs(filepath.Join(p.basePath, filepath.FromSlash(key)))
	if err != nil {
		abs = filepath.Join(p.basePath, key)
	}
	return "file://" + filepath.ToSlash(abs)
}

type localWriter struct {
	f       *os.File
	errChan chan error
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWriter) Close() error {
	err := w.f.Close()
	if err == nil {
		slog.Info("Local export written", "path", w.f.Name())
	}
	w.errChan <- err
	close(w.errChan)
	return err
}

// CloseWithError closes and removes the partial file; the error channel
// receives cause.
func (w *localWriter) CloseWithError(cause error) error {
	err := w.f.Close()
	if rmErr := os.Remove(w.f.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	slog.Warn("Local export discarded", "path", w.f.Name(), "error", cause)
	w.errChan <- cause
	close(w.errChan)
	return err
}

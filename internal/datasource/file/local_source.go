// Package file implements a local filesystem-backed data source and sink.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem location that can be opened for reading or created
// for writing.
type Local struct{ path string }

// NewLocal returns a new Local bound to the provided filesystem path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Create prepares the configured path for writing. Parent directories are
// created as needed. Data goes to a temporary file in the same directory and
// is renamed over the target on Close, so a failed step never leaves a
// truncated artifact behind.
func (l *Local) Create(ctx context.Context) (io.WriteCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", l.path, err)
	}
	return &atomicFile{File: tmp, target: l.path}, nil
}

type atomicFile struct {
	*os.File
	target string
	done   bool
}

// Abort discards the temporary file without touching the target.
func (a *atomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.File.Close()
	return os.Remove(a.File.Name())
}

func (a *atomicFile) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	name := a.File.Name()
	if err := a.File.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", a.target, err)
	}
	if err := os.Rename(name, a.target); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", a.target, err)
	}
	return nil
}

// Abort discards w if it was returned by Local.Create and closes it
// otherwise.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return w.Close()
}

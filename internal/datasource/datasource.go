// Package datasource abstracts where pipeline tables are read from and
// written to.
package datasource

import (
	"context"
	"io"
)

// Source opens a table document for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sink creates a table document for writing. The document becomes visible
// only when the returned WriteCloser is closed without error.
type Sink interface {
	Create(ctx context.Context) (io.WriteCloser, error)
}

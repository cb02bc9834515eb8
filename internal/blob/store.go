package blob

import (
	"context"
	"io"
)

// Store persists raw upload bytes under generated names.
type Store interface {
	// Put writes the reader under name and returns the number of bytes stored.
	// size may be -1 when unknown. It fails with ErrExists instead of overwriting.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	// Open streams a stored blob; ErrNotFound when absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the blob. A missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns every stored blob name.
	List(ctx context.Context) ([]string, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Presigner is implemented by stores that can hand out time-limited direct URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, name string) (string, error)
}

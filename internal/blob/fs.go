package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const tempPrefix = ".upload-"

// FSStore keeps blobs as flat files under a root directory.
type FSStore struct {
	root string
	log  *zap.Logger
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string, log *zap.Logger) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("blob root directory is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root, log: log}, nil
}

// Root returns the directory blobs are written to.
func (s *FSStore) Root() string {
	return s.root
}

// Put writes to a temp file in the root, then hard-links it into place so that
// readers never observe a partial file and an existing name is never replaced.
func (s *FSStore) Put(ctx context.Context, name string, r io.Reader, _ int64, _ string) (int64, error) {
	if !ValidName(name) {
		return 0, ErrInvalidName
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err != nil {
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}

	if err := os.Link(tmpPath, filepath.Join(s.root, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, ErrExists
		}
		return 0, &StorageError{Op: "put", Name: name, Err: err}
	}
	return n, nil
}

// Open returns the blob file; it implements io.ReadSeeker.
func (s *FSStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "open", Name: name, Err: err}
	}
	return f, nil
}

// Delete removes the blob; a missing file is logged and treated as success.
func (s *FSStore) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.root, name))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		s.log.Warn("blob already absent", zap.String("name", name))
		return nil
	default:
		return &StorageError{Op: "delete", Name: name, Err: err}
	}
}

// List returns the names of stored blobs, skipping in-flight temp files.
func (s *FSStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Op: "list", Name: s.root, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Ping checks that the root directory is still present.
func (s *FSStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return &StorageError{Op: "ping", Name: s.root, Err: err}
	}
	if !info.IsDir() {
		return &StorageError{Op: "ping", Name: s.root, Err: errors.New("not a directory")}
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FilesystemStore keeps image blobs on local disk for single-node
// deployments. The router serves the directory under /uploads.
type FilesystemStore struct {
	dir       string
	publicURL string
}

// NewFilesystemStore creates dir if needed and returns the store.
// publicURL is the externally reachable base, e.g. "http://localhost:8080".
func NewFilesystemStore(dir, publicURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FilesystemStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Store validates the blob, then writes it under a random file name.
func (s *FilesystemStore) Store(_ context.Context, data []byte, contentType string) (string, error) {
	ext, err := validateImage(len(data), contentType)
	if err != nil {
		return "", err
	}

	key := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return key, nil
}

// Delete removes the blob file. A missing file is not an error: the caller
// only cares that the blob is gone.
func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// ResolveURL maps a key to the statically served uploads path.
func (s *FilesystemStore) ResolveURL(key string) string {
	return s.publicURL + "/uploads/" + key
}

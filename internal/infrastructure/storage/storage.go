// Package storage holds the asset-store adapters: a MinIO object-store
// client and a local-filesystem store. Both enforce the same image
// constraints before any write occurs.
package storage

import (
	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// MaxImageSize is the upper bound on an uploaded image blob.
const MaxImageSize = 5 << 20 // 5 MiB

// extensions doubles as the content-type allow-list and the mapping to the
// file extension used in generated keys.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// validateImage rejects disallowed content types and oversized blobs.
// Called by every adapter before it touches its backend.
func validateImage(size int, contentType string) (ext string, err error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", domain.NewValidationError("unsupported image type %q", contentType)
	}
	if size > MaxImageSize {
		return "", domain.NewValidationError("image exceeds the %d byte limit", MaxImageSize)
	}
	return ext, nil
}

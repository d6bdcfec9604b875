package ports

import "context"

// AssetStore persists binary image blobs addressed by opaque keys.
//
// Store enforces the image content-type allow-list and the size cap before
// any write occurs, returning domain.ValidationError on violation.
// ResolveURL is a pure mapping from key to a directly fetchable URL.
type AssetStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	ResolveURL(key string) string
}

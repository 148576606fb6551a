package storage

import "context"

// ImageStore persists raw bytes under a key and returns a stable URL that
// downstream providers can fetch. Implementations must tolerate being called
// more than once per request with distinct keys.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

package storage

import (
	"context"
	"time"
)

// DefaultURLTTL is used when a caller asks for a download URL without an expiry.
const DefaultURLTTL = 15 * time.Minute

// ObjectURLSigner issues temporary download URLs for stored objects such as trainer avatars.
type ObjectURLSigner interface {
	PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

package videos

import "context"

// Store persists video records.
type Store interface {
	// Get returns ErrNotFound when no record exists for id.
	Get(ctx context.Context, id string) (Video, error)
	// Claim atomically marks a new video as processing. It returns
	// ErrAlreadyClaimed if the record already has any status.
	Claim(ctx context.Context, id, ownerID string) error
	// Merge writes only the fields set in p, creating the record if needed.
	Merge(ctx context.Context, id string, p Patch) error
}

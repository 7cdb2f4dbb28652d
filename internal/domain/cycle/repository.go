package cycle

import "context"

// Repository persists one State per channel key. Both operations must be
// atomic from the caller's point of view.
type Repository interface {
	// Load returns ErrStateNotFound when nothing was saved yet and
	// ErrCorruptState when the stored payload cannot be decoded.
	Load(ctx context.Context, channelKey string) (*State, error)
	Save(ctx context.Context, channelKey string, st *State) error
}

package repository

import (
	"context"
	"errors"

	"dinehub/internal/domain/entity"
)

// ErrNoMutation may be returned by an AtomicUpdate mutate function to signal
// that the session is already in the desired state. Implementations skip the
// write and return the stored session exactly as it was read.
var ErrNoMutation = errors.New("session unchanged")

// SupportSessionRepository owns persistence of support sessions. AtomicUpdate
// is the only mutation path after creation: implementations must serialize
// concurrent updates per session id so that no two writers interleave on the
// same document, while updates to different sessions proceed independently.
type SupportSessionRepository interface {
	Create(ctx context.Context, session *entity.SupportSession) error
	GetByID(ctx context.Context, id string) (*entity.SupportSession, error)
	ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.SupportSession, int64, error)
	ListByStatus(ctx context.Context, status entity.SessionStatus, limit, offset int) ([]*entity.SupportSession, int64, error)

	// AtomicUpdate fetches the current session, applies mutate and persists
	// the result as one serialized read-modify-write. If mutate returns an
	// error the update is abandoned and that error is returned unchanged,
	// except ErrNoMutation which succeeds without writing.
	AtomicUpdate(ctx context.Context, id string, mutate func(*entity.SupportSession) error) (*entity.SupportSession, error)
}

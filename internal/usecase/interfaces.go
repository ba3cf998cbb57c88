package usecase

import (
	"context"
	"time"

	"dinehub/internal/domain/entity"
)

type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	TestConnection(ctx context.Context) error
}

// AppendEvent describes a message that durably landed on a session.
type AppendEvent struct {
	SessionID  string                `json:"session_id"`
	CustomerID string                `json:"customer_id"`
	Message    entity.SupportMessage `json:"message"`
}

// ReadEvent is emitted only when at least one read flag actually flipped.
type ReadEvent struct {
	SessionID  string        `json:"session_id"`
	CustomerID string        `json:"customer_id"`
	Reader     entity.Sender `json:"reader"`
	Count      int           `json:"count"`
}

type ResolveEvent struct {
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id"`
	ResolvedBy string    `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Notifier receives lifecycle events after the store commit succeeds.
// Implementations are best-effort sinks: they must never block the calling
// operation and their failures are not surfaced to it.
type Notifier interface {
	SessionAppended(event AppendEvent)
	SessionRead(event ReadEvent)
	SessionResolved(event ResolveEvent)
}

package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dinehub/internal/domain/entity"
	"dinehub/internal/domain/repository"
	"dinehub/pkg/errors"
)

type firestoreSupportSessionRepository struct {
	client *firestore.Client
}

func NewFirestoreSupportSessionRepository(client *firestore.Client) repository.SupportSessionRepository {
	return &firestoreSupportSessionRepository{
		client: client,
	}
}

func (r *firestoreSupportSessionRepository) Create(ctx context.Context, session *entity.SupportSession) error {
	if session.OrderID == "" || session.CustomerID == "" {
		return errors.Validation("order_id and customer_id are required", nil)
	}
	if session.Issue == "" {
		return errors.Validation("issue must not be empty", nil)
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.client.Collection("support_sessions").Doc(session.ID).Create(ctx, session)
	if err != nil {
		return mapFirestoreError("create support session", err)
	}

	return nil
}

func (r *firestoreSupportSessionRepository) GetByID(ctx context.Context, id string) (*entity.SupportSession, error) {
	doc, err := r.client.Collection("support_sessions").Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError("get support session", err)
	}

	var session entity.SupportSession
	if err := doc.DataTo(&session); err != nil {
		return nil, errors.Internal("Failed to parse support session data", err)
	}

	return &session, nil
}

// AtomicUpdate runs a single read-modify-write inside a Firestore
// transaction. Firestore serializes concurrent transactions touching the same
// document, which is exactly the per-key ordering the engine relies on; a
// mutate rejection aborts the transaction without writing.
func (r *firestoreSupportSessionRepository) AtomicUpdate(ctx context.Context, id string, mutate func(*entity.SupportSession) error) (*entity.SupportSession, error) {
	docRef := r.client.Collection("support_sessions").Doc(id)

	var updated *entity.SupportSession
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var session entity.SupportSession
		if err := doc.DataTo(&session); err != nil {
			return err
		}

		if err := mutate(&session); err != nil {
			if err == repository.ErrNoMutation {
				// Read-only commit; the stored document stays untouched.
				updated = &session
				return nil
			}
			return err
		}

		session.UpdatedAt = time.Now()
		updated = &session
		return tx.Set(docRef, session)
	})
	if err != nil {
		return nil, mapFirestoreError("update support session", err)
	}

	return updated, nil
}

func (r *firestoreSupportSessionRepository) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.SupportSession, int64, error) {
	query := r.client.Collection("support_sessions").Where("customerId", "==", customerID).OrderBy("lastMessageAt", firestore.Desc)
	return r.listSessions(ctx, query, limit, offset)
}

func (r *firestoreSupportSessionRepository) ListByStatus(ctx context.Context, sessionStatus entity.SessionStatus, limit, offset int) ([]*entity.SupportSession, int64, error) {
	query := r.client.Collection("support_sessions").Where("status", "==", string(sessionStatus)).OrderBy("lastMessageAt", firestore.Desc)
	return r.listSessions(ctx, query, limit, offset)
}

func (r *firestoreSupportSessionRepository) listSessions(ctx context.Context, query firestore.Query, limit, offset int) ([]*entity.SupportSession, int64, error) {
	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while listing support sessions: %v", err)
		return nil, 0, mapFirestoreError("list support sessions", err)
	}

	total := int64(len(allDocs))

	// Pagination applied in-memory, same as the chat listing: the working set
	// per customer or per open backlog is small.
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var sessions []*entity.SupportSession
	for i := start; i < end; i++ {
		var session entity.SupportSession
		if err := allDocs[i].DataTo(&session); err != nil {
			log.Printf("Error parsing support session data: %v", err)
			continue
		}
		sessions = append(sessions, &session)
	}

	return sessions, total, nil
}

// mapFirestoreError translates gRPC-level storage failures into the caller
// taxonomy. Rejections raised by a mutate func are already AppErrors and pass
// through untouched.
func mapFirestoreError(op string, err error) error {
	if errs, ok := err.(*errors.AppError); ok {
		return errs
	}

	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound("Support session", err)
	case codes.AlreadyExists:
		return errors.Conflict("Support session already exists", err)
	case codes.Aborted:
		// Transaction retries exhausted; the caller may re-read and retry once.
		return errors.Conflict("Concurrent update conflict, retry the operation", err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.StoreUnavailable("Session store unreachable", err)
	default:
		return errors.Internal("Failed to "+op, err)
	}
}

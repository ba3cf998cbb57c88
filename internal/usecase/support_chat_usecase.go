package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dinehub/internal/domain/entity"
	"dinehub/internal/domain/repository"
	"dinehub/internal/infrastructure/ratelimit"
	"dinehub/pkg/errors"
	"dinehub/pkg/logger"
)

// SupportChatUseCase enforces the support session lifecycle on top of the
// session store. It holds no session state between calls: every operation is
// one AtomicUpdate against current data, and events go out only after the
// store commit succeeded.
type SupportChatUseCase struct {
	sessionRepo  repository.SupportSessionRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	notifier     Notifier
	rateLimiter  *ratelimit.RateLimiter
	now          func() time.Time
}

func NewSupportChatUseCase(
	sessionRepo repository.SupportSessionRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	notifier Notifier,
) *SupportChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &SupportChatUseCase{
		sessionRepo:  sessionRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
		rateLimiter:  rateLimiter,
		now:          time.Now,
	}
}

type OpenSessionInput struct {
	OrderID    string
	CustomerID string
	Issue      string
	Category   string
}

func (uc *SupportChatUseCase) OpenSession(ctx context.Context, input OpenSessionInput) (*entity.SupportSession, error) {
	if input.OrderID == "" || input.CustomerID == "" {
		return nil, errors.Validation("order_id and customer_id are required", nil)
	}
	if input.Issue == "" {
		return nil, errors.Validation("issue must not be empty", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(input.CustomerID, "open_session")
	if !allowed {
		logger.Warn("OpenSession rate limited: customer %s must wait %v", input.CustomerID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another session", waitTime)
	}

	session := &entity.SupportSession{
		OrderID:       input.OrderID,
		CustomerID:    input.CustomerID,
		Issue:         input.Issue,
		Category:      input.Category,
		Status:        entity.SessionStatusActive,
		Messages:      []entity.SupportMessage{},
		LastMessageAt: uc.now(),
	}

	// Snapshots are best-effort: the engine does not enforce that the order
	// or customer actually exist, it only decorates the session for display.
	if order, err := uc.orderRepo.GetByID(ctx, input.OrderID); err == nil {
		session.OrderDetails = orderSnapshot(order)
	} else {
		logger.Warn("OpenSession: order %s not found for snapshot: %v", input.OrderID, err)
	}
	if customer, err := uc.customerRepo.GetByID(ctx, input.CustomerID); err == nil {
		session.CustomerDetails = &entity.CustomerSnapshot{
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		}
	} else {
		logger.Warn("OpenSession: customer %s not found for snapshot: %v", input.CustomerID, err)
	}

	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		logger.Error("Failed to create support session for order %s: %v", input.OrderID, err)
		return nil, err
	}

	return session, nil
}

// AppendMessage adds one message to an active session. The timestamp is taken
// from the clock at mutation time; if the clock has not advanced past the last
// message the engine bumps it by one microsecond so the (timestamp, id) order
// stays strictly increasing. A microsecond is the smallest step that survives
// a Firestore round-trip.
func (uc *SupportChatUseCase) AppendMessage(ctx context.Context, sessionID string, sender entity.Sender, senderID, content string) (*entity.SupportMessage, error) {
	if !sender.Valid() {
		return nil, errors.Validation("sender must be customer or admin", nil)
	}
	if content == "" {
		return nil, errors.Validation("content must not be empty", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("AppendMessage rate limited: sender %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	var appended entity.SupportMessage
	session, err := uc.sessionRepo.AtomicUpdate(ctx, sessionID, func(s *entity.SupportSession) error {
		if sender == entity.SenderCustomer && s.CustomerID != senderID {
			return errors.Forbidden("Session belongs to another customer", nil)
		}
		if s.Status == entity.SessionStatusResolved {
			return errors.SessionClosed("Support session is resolved; no further messages can be added")
		}

		ts := uc.now()
		if last := s.LastMessage(); last != nil && !ts.After(last.Timestamp) {
			ts = last.Timestamp.Add(time.Microsecond)
		}

		appended = entity.SupportMessage{
			ID:        uuid.New().String(),
			Sender:    sender,
			SenderID:  senderID,
			Content:   content,
			Timestamp: ts,
			Read:      false,
		}
		s.Messages = append(s.Messages, appended)
		s.LastMessageAt = ts
		return nil
	})
	if err != nil {
		logger.Error("Failed to append message to session %s: %v", sessionID, err)
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.SessionAppended(AppendEvent{
			SessionID:  session.ID,
			CustomerID: session.CustomerID,
			Message:    appended,
		})
	}

	return &appended, nil
}

// MarkRead flips the read flag on every unread message authored by the other
// party. Calling it again with no new messages in between changes nothing and
// emits no event.
func (uc *SupportChatUseCase) MarkRead(ctx context.Context, sessionID string, reader entity.Sender, readerID string) (*entity.SupportSession, error) {
	if !reader.Valid() {
		return nil, errors.Validation("reader must be customer or admin", nil)
	}

	flipped := 0
	session, err := uc.sessionRepo.AtomicUpdate(ctx, sessionID, func(s *entity.SupportSession) error {
		if reader == entity.SenderCustomer && s.CustomerID != readerID {
			return errors.Forbidden("Session belongs to another customer", nil)
		}

		flipped = 0
		for i := range s.Messages {
			if s.Messages[i].Sender == reader.Other() && !s.Messages[i].Read {
				s.Messages[i].Read = true
				flipped++
			}
		}
		if flipped == 0 {
			// Nothing to flip; skip the write so the stored session is
			// byte-for-byte what the previous call produced.
			return repository.ErrNoMutation
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to mark session %s read by %s: %v", sessionID, reader, err)
		return nil, err
	}

	if flipped > 0 && uc.notifier != nil {
		uc.notifier.SessionRead(ReadEvent{
			SessionID:  session.ID,
			CustomerID: session.CustomerID,
			Reader:     reader,
			Count:      flipped,
		})
	}

	return session, nil
}

// ResolveSession transitions an active session to its terminal state. The
// second of two racing resolvers observes ALREADY_RESOLVED; resolution never
// silently no-ops.
func (uc *SupportChatUseCase) ResolveSession(ctx context.Context, sessionID, resolvedBy string) (*entity.SupportSession, error) {
	if resolvedBy == "" {
		return nil, errors.Validation("resolved_by is required", nil)
	}

	session, err := uc.sessionRepo.AtomicUpdate(ctx, sessionID, func(s *entity.SupportSession) error {
		if s.Status == entity.SessionStatusResolved {
			return errors.AlreadyResolved("Support session is already resolved")
		}

		now := uc.now()
		s.Status = entity.SessionStatusResolved
		s.ResolvedBy = resolvedBy
		s.ResolvedAt = &now
		return nil
	})
	if err != nil {
		logger.Error("Failed to resolve session %s: %v", sessionID, err)
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.SessionResolved(ResolveEvent{
			SessionID:  session.ID,
			CustomerID: session.CustomerID,
			ResolvedBy: session.ResolvedBy,
			ResolvedAt: *session.ResolvedAt,
		})
	}

	return session, nil
}

func (uc *SupportChatUseCase) GetSession(ctx context.Context, requesterID string, admin bool, sessionID string) (*entity.SupportSession, error) {
	session, err := uc.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !admin && session.CustomerID != requesterID {
		logger.Warn("GetSession: customer %s is not the owner of session %s", requesterID, sessionID)
		return nil, errors.Forbidden("Session belongs to another customer", nil)
	}

	return session, nil
}

func (uc *SupportChatUseCase) ListCustomerSessions(ctx context.Context, customerID string, limit, offset int) ([]*entity.SupportSession, int64, error) {
	return uc.sessionRepo.ListByCustomerID(ctx, customerID, limit, offset)
}

func (uc *SupportChatUseCase) ListSessionsByStatus(ctx context.Context, sessionStatus entity.SessionStatus, limit, offset int) ([]*entity.SupportSession, int64, error) {
	if sessionStatus != entity.SessionStatusActive && sessionStatus != entity.SessionStatusResolved {
		return nil, 0, errors.Validation("status must be active or resolved", nil)
	}
	return uc.sessionRepo.ListByStatus(ctx, sessionStatus, limit, offset)
}

func orderSnapshot(order *entity.Order) *entity.OrderSnapshot {
	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, item.Name)
	}
	return &entity.OrderSnapshot{
		OrderNumber: order.OrderNumber,
		Items:       items,
		Total:       order.Total,
		PlacedAt:    order.PlacedAt,
	}
}

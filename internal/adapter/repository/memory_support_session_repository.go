package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dinehub/internal/domain/entity"
	"dinehub/internal/domain/repository"
	"dinehub/pkg/errors"
)

// memorySupportSessionRepository keeps sessions in a map with one mutex per
// session id, so concurrent AtomicUpdate calls on the same session serialize
// while different sessions never block each other. Used by tests and local
// development without a Firestore project.
type memorySupportSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.SupportSession
	locks    map[string]*sync.Mutex
}

func NewMemorySupportSessionRepository() repository.SupportSessionRepository {
	return &memorySupportSessionRepository{
		sessions: make(map[string]*entity.SupportSession),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *memorySupportSessionRepository) Create(ctx context.Context, session *entity.SupportSession) error {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return errors.Conflict("Support session already exists", nil)
	}
	r.sessions[session.ID] = cloneSession(session)

	return nil
}

func (r *memorySupportSessionRepository) GetByID(ctx context.Context, id string) (*entity.SupportSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.NotFound("Support session", nil)
	}

	return cloneSession(session), nil
}

func (r *memorySupportSessionRepository) AtomicUpdate(ctx context.Context, id string, mutate func(*entity.SupportSession) error) (*entity.SupportSession, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("Support session", nil)
	}

	// Mutate a copy; nothing is visible to readers until the write below.
	working := cloneSession(stored)
	if err := mutate(working); err != nil {
		if err == repository.ErrNoMutation {
			return cloneSession(stored), nil
		}
		return nil, err
	}
	working.UpdatedAt = time.Now()

	r.mu.Lock()
	r.sessions[id] = cloneSession(working)
	r.mu.Unlock()

	return working, nil
}

func (r *memorySupportSessionRepository) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.SupportSession, int64, error) {
	return r.list(func(s *entity.SupportSession) bool { return s.CustomerID == customerID }, limit, offset)
}

func (r *memorySupportSessionRepository) ListByStatus(ctx context.Context, sessionStatus entity.SessionStatus, limit, offset int) ([]*entity.SupportSession, int64, error) {
	return r.list(func(s *entity.SupportSession) bool { return s.Status == sessionStatus }, limit, offset)
}

func (r *memorySupportSessionRepository) list(match func(*entity.SupportSession) bool, limit, offset int) ([]*entity.SupportSession, int64, error) {
	r.mu.RLock()
	var all []*entity.SupportSession
	for _, s := range r.sessions {
		if match(s) {
			all = append(all, cloneSession(s))
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].LastMessageAt.After(all[j].LastMessageAt)
	})

	total := int64(len(all))

	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return all[start:end], total, nil
}

func (r *memorySupportSessionRepository) lockFor(id string) *sync.Mutex {
	r.mu.RLock()
	lock, exists := r.locks[id]
	r.mu.RUnlock()
	if exists {
		return lock
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, exists = r.locks[id]; !exists {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func cloneSession(s *entity.SupportSession) *entity.SupportSession {
	clone := *s
	clone.Messages = make([]entity.SupportMessage, len(s.Messages))
	copy(clone.Messages, s.Messages)
	if s.OrderDetails != nil {
		od := *s.OrderDetails
		od.Items = append([]string(nil), s.OrderDetails.Items...)
		clone.OrderDetails = &od
	}
	if s.CustomerDetails != nil {
		cd := *s.CustomerDetails
		clone.CustomerDetails = &cd
	}
	if s.ResolvedAt != nil {
		at := *s.ResolvedAt
		clone.ResolvedAt = &at
	}
	return &clone
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub/internal/domain/entity"
	domainrepo "dinehub/internal/domain/repository"
	"dinehub/pkg/errors"
)

func newStoredSession(t *testing.T, repo interface {
	Create(ctx context.Context, session *entity.SupportSession) error
}) *entity.SupportSession {
	t.Helper()
	session := &entity.SupportSession{
		OrderID:    "order-1",
		CustomerID: "cust-1",
		Issue:      "missing side dish",
		Status:     entity.SessionStatusActive,
		Messages:   []entity.SupportMessage{},
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()

	session := newStoredSession(t, repo)
	assert.NotEmpty(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	err = repo.Create(ctx, &entity.SupportSession{OrderID: "order-1", CustomerID: "cust-1"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"), "issue is required")
}

func TestMemoryRepositoryAtomicUpdateSerializes(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()
	session := newStoredSession(t, repo)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := repo.AtomicUpdate(ctx, session.ID, func(s *entity.SupportSession) error {
				s.Messages = append(s.Messages, entity.SupportMessage{
					ID:        fmt.Sprintf("m-%d", i),
					Sender:    entity.SenderCustomer,
					SenderID:  "cust-1",
					Content:   "hello",
					Timestamp: time.Now(),
				})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, writers, "every append must land")
}

func TestMemoryRepositoryAtomicUpdateRejectionLeavesStateUnchanged(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()
	session := newStoredSession(t, repo)

	_, err := repo.AtomicUpdate(ctx, session.ID, func(s *entity.SupportSession) error {
		s.Messages = append(s.Messages, entity.SupportMessage{ID: "m-1"})
		s.Status = entity.SessionStatusResolved
		return errors.SessionClosed("rejected")
	})
	assert.True(t, errors.Is(err, "SESSION_CLOSED"))

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
	assert.Equal(t, entity.SessionStatusActive, got.Status)
}

func TestMemoryRepositoryReturnsIsolatedCopies(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()
	session := newStoredSession(t, repo)

	_, err := repo.AtomicUpdate(ctx, session.ID, func(s *entity.SupportSession) error {
		s.Messages = append(s.Messages, entity.SupportMessage{ID: "m-1", Content: "original"})
		return nil
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "tampered"
	got.Status = entity.SessionStatusResolved

	fresh, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Messages[0].Content)
	assert.Equal(t, entity.SessionStatusActive, fresh.Status)
}

func TestMemoryRepositoryAtomicUpdateNoMutationSkipsWrite(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()
	session := newStoredSession(t, repo)

	before, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)

	got, err := repo.AtomicUpdate(ctx, session.ID, func(s *entity.SupportSession) error {
		return domainrepo.ErrNoMutation
	})
	require.NoError(t, err)
	assert.Equal(t, before, got)

	after, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestMemoryRepositoryAtomicUpdateNotFound(t *testing.T) {
	repo := NewMemorySupportSessionRepository()

	_, err := repo.AtomicUpdate(context.Background(), "missing", func(s *entity.SupportSession) error {
		return nil
	})
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestMemoryRepositoryListPagination(t *testing.T) {
	repo := NewMemorySupportSessionRepository()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		session := &entity.SupportSession{
			OrderID:       fmt.Sprintf("order-%d", i),
			CustomerID:    "cust-1",
			Issue:         "late delivery",
			Status:        entity.SessionStatusActive,
			LastMessageAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, session))
	}

	page, total, err := repo.ListByCustomerID(ctx, "cust-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "order-4", page[0].OrderID, "newest activity first")
	assert.Equal(t, "order-3", page[1].OrderID)

	rest, total, err := repo.ListByCustomerID(ctx, "cust-1", 10, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rest, 1)
	assert.Equal(t, "order-0", rest[0].OrderID)

	none, total, err := repo.ListByStatus(ctx, entity.SessionStatusResolved, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, none)
}

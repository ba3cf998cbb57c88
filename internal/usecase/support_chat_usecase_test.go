package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehub/internal/adapter/repository"
	"dinehub/internal/domain/entity"
	"dinehub/pkg/errors"
)

type fakeOrderRepo struct {
	orders map[string]*entity.Order
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if order, ok := f.orders[id]; ok {
		return order, nil
	}
	return nil, errors.NotFound("Order", nil)
}

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if customer, ok := f.customers[id]; ok {
		return customer, nil
	}
	return nil, errors.NotFound("Customer", nil)
}

type recordingNotifier struct {
	mu       sync.Mutex
	appends  []AppendEvent
	reads    []ReadEvent
	resolves []ResolveEvent
}

func (n *recordingNotifier) SessionAppended(event AppendEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appends = append(n.appends, event)
}

func (n *recordingNotifier) SessionRead(event ReadEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, event)
}

func (n *recordingNotifier) SessionResolved(event ResolveEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolves = append(n.resolves, event)
}

func (n *recordingNotifier) counts() (int, int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.appends), len(n.reads), len(n.resolves)
}

func newTestUseCase() (*SupportChatUseCase, *recordingNotifier) {
	notifier := &recordingNotifier{}
	uc := NewSupportChatUseCase(
		repository.NewMemorySupportSessionRepository(),
		&fakeOrderRepo{orders: map[string]*entity.Order{
			"order-1": {
				ID:          "order-1",
				OrderNumber: "DH-1042",
				CustomerID:  "cust-1",
				Items:       []entity.OrderItem{{Name: "Margherita", Quantity: 1, UnitPrice: 12.5}},
				Total:       12.5,
				PlacedAt:    time.Now(),
			},
		}},
		&fakeCustomerRepo{customers: map[string]*entity.Customer{
			"cust-1": {ID: "cust-1", Name: "Dana", Email: "dana@example.com", Role: "customer"},
		}},
		notifier,
	)
	return uc, notifier
}

func openTestSession(t *testing.T, uc *SupportChatUseCase) *entity.SupportSession {
	t.Helper()
	session, err := uc.OpenSession(context.Background(), OpenSessionInput{
		OrderID:    "order-1",
		CustomerID: "cust-1",
		Issue:      "wrong item",
		Category:   "delivery",
	})
	require.NoError(t, err)
	return session
}

func TestOpenSessionValidation(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	_, err := uc.OpenSession(ctx, OpenSessionInput{CustomerID: "cust-1", Issue: "x"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.OpenSession(ctx, OpenSessionInput{OrderID: "order-1", CustomerID: "cust-1"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestOpenSessionRejectedInputConsumesNoRateLimitToken(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	// The open_session bucket holds three tokens; if rejected input burned
	// one, five failures would exhaust it and the valid open below would be
	// rate limited instead of succeeding.
	for i := 0; i < 5; i++ {
		_, err := uc.OpenSession(ctx, OpenSessionInput{CustomerID: "cust-1", Issue: "no order id"})
		assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	}

	_, err := uc.OpenSession(ctx, OpenSessionInput{OrderID: "order-1", CustomerID: "cust-1", Issue: "wrong item"})
	require.NoError(t, err)
}

func TestOpenSessionCapturesSnapshots(t *testing.T) {
	uc, _ := newTestUseCase()

	session := openTestSession(t, uc)

	assert.Equal(t, entity.SessionStatusActive, session.Status)
	assert.Empty(t, session.Messages)
	require.NotNil(t, session.OrderDetails)
	assert.Equal(t, "DH-1042", session.OrderDetails.OrderNumber)
	assert.Equal(t, []string{"Margherita"}, session.OrderDetails.Items)
	require.NotNil(t, session.CustomerDetails)
	assert.Equal(t, "dana@example.com", session.CustomerDetails.Email)
}

func TestOpenSessionWithUnknownReferencesStillSucceeds(t *testing.T) {
	uc, _ := newTestUseCase()

	session, err := uc.OpenSession(context.Background(), OpenSessionInput{
		OrderID:    "order-unknown",
		CustomerID: "cust-unknown",
		Issue:      "cold food",
	})
	require.NoError(t, err)
	assert.Nil(t, session.OrderDetails)
	assert.Nil(t, session.CustomerDetails)
}

func TestAppendMessageOrdering(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	// Freeze the clock so every raw read collides; the engine must still
	// produce strictly increasing timestamps.
	frozen := time.Now()
	uc.now = func() time.Time { return frozen }

	for i := 0; i < 5; i++ {
		_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "msg")
		require.NoError(t, err)
	}

	got, err := uc.GetSession(ctx, "cust-1", false, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 5)
	for i := 1; i < len(got.Messages); i++ {
		assert.True(t, got.Messages[i].Timestamp.After(got.Messages[i-1].Timestamp),
			"message %d not strictly after predecessor", i)
	}
	assert.Equal(t, got.Messages[4].Timestamp, got.LastMessageAt)
}

func TestAppendMessageValidation(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "")
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.AppendMessage(ctx, session.ID, entity.Sender("bot"), "bot-1", "hi")
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.AppendMessage(ctx, "no-such-session", entity.SenderCustomer, "cust-1", "hi")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, err = uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-2", "hi")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestAppendMessageOnResolvedSession(t *testing.T) {
	uc, notifier := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "hello")
	require.NoError(t, err)

	_, err = uc.ResolveSession(ctx, session.ID, "admin-1")
	require.NoError(t, err)

	_, err = uc.AppendMessage(ctx, session.ID, entity.SenderAdmin, "admin-1", "too late")
	assert.True(t, errors.Is(err, "SESSION_CLOSED"))

	got, err := uc.GetSession(ctx, "admin-1", true, session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, got.Messages[0].Timestamp, got.LastMessageAt)

	appends, _, _ := notifier.counts()
	assert.Equal(t, 1, appends, "rejected append must not emit an event")
}

func TestMarkReadFlipsOnlyOtherPartyAndIsIdempotent(t *testing.T) {
	uc, notifier := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "I got the wrong order")
	require.NoError(t, err)
	_, err = uc.AppendMessage(ctx, session.ID, entity.SenderAdmin, "admin-1", "Sorry, refunding now")
	require.NoError(t, err)

	updated, err := uc.MarkRead(ctx, session.ID, entity.SenderCustomer, "cust-1")
	require.NoError(t, err)

	assert.True(t, updated.Messages[1].Read, "admin message should be read")
	assert.False(t, updated.Messages[0].Read, "customer's own message must stay unread")
	assert.Equal(t, 0, updated.UnreadFor(entity.SenderCustomer))
	assert.Equal(t, 1, updated.UnreadFor(entity.SenderAdmin))

	_, reads, _ := notifier.counts()
	assert.Equal(t, 1, reads)

	// Second call with no new messages: the stored session must come back
	// byte-for-byte identical, UpdatedAt included, and no new event fires.
	again, err := uc.MarkRead(ctx, session.ID, entity.SenderCustomer, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, updated, again)

	_, reads, _ = notifier.counts()
	assert.Equal(t, 1, reads)
}

func TestResolveSessionExactlyOnce(t *testing.T) {
	uc, notifier := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	resolved, err := uc.ResolveSession(ctx, session.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusResolved, resolved.Status)
	assert.Equal(t, "admin-1", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = uc.ResolveSession(ctx, session.ID, "admin-2")
	assert.True(t, errors.Is(err, "ALREADY_RESOLVED"))

	got, err := uc.GetSession(ctx, "admin-1", true, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.ResolvedBy)
	assert.Equal(t, resolved.ResolvedAt.UnixNano(), got.ResolvedAt.UnixNano())

	_, _, resolves := notifier.counts()
	assert.Equal(t, 1, resolves)
}

func TestConcurrentAppendsBothLand(t *testing.T) {
	uc, notifier := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "from customer")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := uc.AppendMessage(ctx, session.ID, entity.SenderAdmin, "admin-1", "from admin")
		assert.NoError(t, err)
	}()
	wg.Wait()

	got, err := uc.GetSession(ctx, "cust-1", false, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2, "no lost update")
	for i := 1; i < len(got.Messages); i++ {
		assert.True(t, got.Messages[i].Timestamp.After(got.Messages[i-1].Timestamp))
	}

	appends, _, _ := notifier.counts()
	assert.Equal(t, 2, appends)
}

func TestConcurrentResolveExactlyOneWins(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for _, admin := range []string{"admin-1", "admin-2"} {
		go func(admin string) {
			defer wg.Done()
			_, err := uc.ResolveSession(ctx, session.ID, admin)
			results <- err
		}(admin)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if errors.Is(err, "ALREADY_RESOLVED") {
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
}

func TestGetSessionOwnership(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	session := openTestSession(t, uc)

	_, err := uc.GetSession(ctx, "cust-2", false, session.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	got, err := uc.GetSession(ctx, "admin-1", true, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestListSessions(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	session := openTestSession(t, uc)
	_, err := uc.OpenSession(ctx, OpenSessionInput{OrderID: "order-2", CustomerID: "cust-2", Issue: "late delivery"})
	require.NoError(t, err)

	mine, total, err := uc.ListCustomerSessions(ctx, "cust-1", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, session.ID, mine[0].ID)

	active, total, err := uc.ListSessionsByStatus(ctx, entity.SessionStatusActive, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, active, 2)

	_, err = uc.ResolveSession(ctx, session.ID, "admin-1")
	require.NoError(t, err)

	resolvedSessions, total, err := uc.ListSessionsByStatus(ctx, entity.SessionStatusResolved, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, resolvedSessions, 1)
	assert.Equal(t, session.ID, resolvedSessions[0].ID)

	_, _, err = uc.ListSessionsByStatus(ctx, entity.SessionStatus("archived"), 20, 0)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

// Full walk through the happy path: open, both parties talk, customer reads
// the reply, admin resolves, further appends are rejected.
func TestSupportFlow(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	session := openTestSession(t, uc)

	_, err := uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "I got the wrong order")
	require.NoError(t, err)
	_, err = uc.AppendMessage(ctx, session.ID, entity.SenderAdmin, "admin-1", "Sorry, refunding now")
	require.NoError(t, err)

	updated, err := uc.MarkRead(ctx, session.ID, entity.SenderCustomer, "cust-1")
	require.NoError(t, err)
	assert.True(t, updated.Messages[1].Read)

	resolved, err := uc.ResolveSession(ctx, session.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusResolved, resolved.Status)
	assert.Equal(t, "admin-1", resolved.ResolvedBy)

	_, err = uc.AppendMessage(ctx, session.ID, entity.SenderCustomer, "cust-1", "one more thing")
	assert.True(t, errors.Is(err, "SESSION_CLOSED"))
}

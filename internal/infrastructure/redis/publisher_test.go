package redis

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"dinehub/internal/usecase"
)

// Event delivery must never stall the operation that emitted the event, even
// with an unreachable broker.
func TestPublisherDoesNotBlockCaller(t *testing.T) {
	p := &Publisher{client: redis.NewClient(&redis.Options{
		Addr:        "10.255.255.1:6379",
		DialTimeout: 2 * time.Second,
	})}
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.SessionAppended(usecase.AppendEvent{SessionID: "s-1", CustomerID: "cust-1"})
		p.SessionRead(usecase.ReadEvent{SessionID: "s-1", CustomerID: "cust-1"})
		p.SessionResolved(usecase.ResolveEvent{SessionID: "s-1", CustomerID: "cust-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("publishing blocked the calling goroutine")
	}
}

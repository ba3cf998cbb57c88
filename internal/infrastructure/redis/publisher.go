package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"dinehub/internal/usecase"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Publisher is a Notifier that fans session events out over Redis pub/sub,
// one channel per session plus a firehose channel for admin dashboards.
// Publishing is best-effort and happens off the calling goroutine, so a slow
// or unreachable Redis never stalls the operation that emitted the event.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(cfg *Config) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Publisher{client: client}, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) SessionAppended(event usecase.AppendEvent) {
	go p.publish(event.SessionID, "support_message", event)
}

func (p *Publisher) SessionRead(event usecase.ReadEvent) {
	go p.publish(event.SessionID, "support_read", event)
}

func (p *Publisher) SessionResolved(event usecase.ResolveEvent) {
	go p.publish(event.SessionID, "support_resolved", event)
}

func (p *Publisher) publish(sessionID, eventType string, event interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  eventType,
		"event": event,
	})
	if err != nil {
		log.Printf("Publisher: failed to marshal %s event: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.client.Publish(ctx, "support.session."+sessionID, payload).Err(); err != nil {
		log.Printf("Publisher: failed to publish %s for session %s: %v", eventType, sessionID, err)
	}
	if err := p.client.Publish(ctx, "support.events", payload).Err(); err != nil {
		log.Printf("Publisher: failed to publish %s to firehose: %v", eventType, err)
	}
}

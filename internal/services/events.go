package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/inkwell-app/apiserver/internal/mq"
)

// Activity event types published when content is created.
const (
	EventBookCreated    = "book.created"
	EventChapterCreated = "chapter.created"
	EventReviewCreated  = "review.created"
)

// ActivityEvent is the payload published to the activity channel.
type ActivityEvent struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	BookID     int       `json:"book_id"`
	ResourceID int       `json:"resource_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher publishes activity events to a broker channel. A nil
// publisher is valid and drops everything, so services can publish
// unconditionally. Publish failures are logged, never surfaced: events
// are best-effort and must not fail the originating request.
type EventPublisher struct {
	mq      *mq.MQ
	channel string
}

func NewEventPublisher(broker *mq.MQ, channel string) *EventPublisher {
	if broker == nil {
		return nil
	}
	return &EventPublisher{mq: broker, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, event ActivityEvent) {
	if p == nil {
		return
	}
	event.OccurredAt = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("activity event marshal failed: %v", err)
		return
	}
	attrs := map[string]string{"type": event.Type}
	if _, err := p.mq.Publish(ctx, p.channel, data, attrs); err != nil {
		log.Printf("activity event publish failed: %v", err)
	}
}

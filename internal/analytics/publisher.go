package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher publishes link lifecycle events. Publishing is best-effort from
// the caller's point of view: the HTTP layer logs failures but never fails a
// request over them.
type Publisher struct {
	publisher message.Publisher
}

// NewPublisher creates a publisher on top of a watermill publisher.
func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{publisher: publisher}
}

// PublishLinkCreated publishes a link created event.
func (p *Publisher) PublishLinkCreated(event *LinkCreatedEvent) error {
	return p.publish(TopicLinkCreated, event)
}

// PublishLinkVisited publishes a link visited event.
func (p *Publisher) PublishLinkVisited(event *LinkVisitedEvent) error {
	return p.publish(TopicLinkVisited, event)
}

func (p *Publisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	return p.publisher.Publish(topic, msg)
}

// Shutdown closes the underlying publisher.
func (p *Publisher) Shutdown() error {
	return p.publisher.Close()
}

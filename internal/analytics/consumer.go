package analytics

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// VisitRecorder bumps realtime visit counters. Implemented by Counter.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, event *LinkVisitedEvent) error
}

// Consumer consumes link events: visits feed the visit log and the realtime
// counters, creations are logged for operational visibility.
type Consumer struct {
	subscriber message.Subscriber
	store      Store
	counter    VisitRecorder
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates an analytics consumer.
func NewConsumer(subscriber message.Subscriber, store Store, counter VisitRecorder, logger *zap.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		store:      store,
		counter:    counter,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins consuming messages from both topics.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	createdMsgs, err := c.subscriber.Subscribe(ctx, TopicLinkCreated)
	if err != nil {
		return err
	}

	visitedMsgs, err := c.subscriber.Subscribe(ctx, TopicLinkVisited)
	if err != nil {
		return err
	}

	go c.consumeLoop(ctx, createdMsgs, visitedMsgs)

	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, createdMsgs, visitedMsgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-createdMsgs:
			if !ok {
				return
			}

			c.handleLinkCreated(msg)
		case msg, ok := <-visitedMsgs:
			if !ok {
				return
			}

			c.handleLinkVisited(ctx, msg)
		}
	}
}

func (c *Consumer) handleLinkCreated(msg *message.Message) {
	var event LinkCreatedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal link created event", zap.Error(err))
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Info("link created",
		zap.String("code", event.Code),
		zap.Int("buildType", event.BuildType),
		zap.Time("createdAt", event.CreatedAt),
	)
}

func (c *Consumer) handleLinkVisited(ctx context.Context, msg *message.Message) {
	var event LinkVisitedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal link visited event", zap.Error(err))
		msg.Nack()

		return
	}

	if err := c.store.InsertVisitLog(ctx, &event); err != nil {
		c.logger.Error("failed to save visit log",
			zap.String("code", event.Code),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	if err := c.counter.RecordVisit(ctx, &event); err != nil {
		c.logger.Error("failed to bump visit counters",
			zap.String("code", event.Code),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed visit", zap.String("code", event.Code))
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
func (c *Consumer) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return c.subscriber.Close()
}

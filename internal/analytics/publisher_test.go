package analytics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/miniuri/shortlink/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topics     []string
	publishErr error
	closeErr   error
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topics = append(m.topics, topic)
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	return m.closeErr
}

func TestPublisher(t *testing.T) {
	t.Run("publishes link created events", func(t *testing.T) {
		mock := &mockPublisher{}
		p := analytics.NewPublisher(mock)

		err := p.PublishLinkCreated(&analytics.LinkCreatedEvent{
			Code:      "abc123",
			LongURL:   "https://example.com",
			CreatedAt: time.Now(),
		})

		require.NoError(t, err)
		require.Len(t, mock.messages, 1)
		assert.Equal(t, []string{analytics.TopicLinkCreated}, mock.topics)
		assert.Contains(t, string(mock.messages[0].Payload), `"code":"abc123"`)
	})

	t.Run("publishes link visited events", func(t *testing.T) {
		mock := &mockPublisher{}
		p := analytics.NewPublisher(mock)

		err := p.PublishLinkVisited(&analytics.LinkVisitedEvent{
			Code:      "abc123",
			VisitorID: "f00dcafe",
		})

		require.NoError(t, err)
		require.Len(t, mock.messages, 1)
		assert.Equal(t, []string{analytics.TopicLinkVisited}, mock.topics)
		assert.Contains(t, string(mock.messages[0].Payload), `"visitorId":"f00dcafe"`)
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		p := analytics.NewPublisher(mock)

		err := p.PublishLinkCreated(&analytics.LinkCreatedEvent{Code: "abc123"})

		assert.Error(t, err)
	})

	t.Run("shutdown closes the underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		p := analytics.NewPublisher(mock)

		assert.Error(t, p.Shutdown())
	})
}

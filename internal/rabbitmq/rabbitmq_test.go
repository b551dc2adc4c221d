package rabbitmq

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	p := NewPublisher("", "messenger", discard())
	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "x", map[string]string{}, nil))
	assert.NoError(t, p.Close())
}

func TestRelayPublishesByKind(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	relay := NewMessageRelay(publisher, "messenger-service", 8, discard())

	recipient, group := 2, 5
	direct := models.Message{ID: 1, SenderID: 1, RecipientID: &recipient, Content: "hi", CreatedAt: time.Now()}
	grouped := models.Message{ID: 2, SenderID: 1, GroupID: &group, Content: "all", CreatedAt: time.Now()}

	publisher.On("Publish", mock.Anything, RoutingKeyDirectCreated, mock.MatchedBy(func(e MessageCreatedEvent) bool {
		return e.Message.ID == 1 && e.EventType == "message_created" && e.Service == "messenger-service"
	}), mock.Anything).Return(nil).Once()
	publisher.On("Publish", mock.Anything, RoutingKeyGroupCreated, mock.MatchedBy(func(e MessageCreatedEvent) bool {
		return e.Message.ID == 2
	}), mock.Anything).Return(assert.AnError).Once()

	relay.OnMessageCreated(context.Background(), direct)
	relay.OnMessageCreated(context.Background(), grouped)
	relay.Close()

	publisher.AssertExpectations(t)

	// Events after Close are ignored.
	relay.OnMessageCreated(context.Background(), direct)
	relay.Close()
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRelayDropsWhenQueueFull(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	release := make(chan struct{})
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	relay := NewMessageRelay(publisher, "messenger-service", 1, discard())
	recipient := 2
	for i := 1; i <= 5; i++ {
		relay.OnMessageCreated(context.Background(), models.Message{ID: i, SenderID: 1, RecipientID: &recipient})
	}
	close(release)
	relay.Close()

	calls := len(publisher.Calls)
	require.GreaterOrEqual(t, calls, 1)
	assert.LessOrEqual(t, calls, 2)
}

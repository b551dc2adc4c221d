package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

const (
	RoutingKeyDirectCreated = "messages.created.direct"
	RoutingKeyGroupCreated  = "messages.created.group"
)

// MessageCreatedEvent is the body published for every appended message.
type MessageCreatedEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Message       models.Message `json:"message"`
}

type relayItem struct {
	routingKey string
	event      MessageCreatedEvent
	headers    map[string]string
}

// MessageRelay forwards created messages to the exchange for other
// instances and consumers. Publishing happens on its own goroutine; when the
// queue is full events are dropped and counted.
type MessageRelay struct {
	publisher Publisher
	service   string
	log       *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan relayItem
	wg     sync.WaitGroup
}

func NewMessageRelay(publisher Publisher, service string, buffer int, log *slog.Logger) *MessageRelay {
	if buffer <= 0 {
		buffer = 256
	}
	r := &MessageRelay{
		publisher: publisher,
		service:   service,
		log:       log,
		queue:     make(chan relayItem, buffer),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *MessageRelay) OnMessageCreated(ctx context.Context, msg models.Message) {
	routingKey := RoutingKeyGroupCreated
	if msg.IsDirect() {
		routingKey = RoutingKeyDirectCreated
	}

	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	item := relayItem{
		routingKey: routingKey,
		event: MessageCreatedEvent{
			SchemaVersion: 1,
			EventType:     "message_created",
			OccurredAt:    msg.CreatedAt.UTC().Format(time.RFC3339Nano),
			Service:       r.service,
			Message:       msg,
		},
		headers: observability.BuildHeaders("", traceID),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- item:
	default:
		observability.IncRelayDropped()
		r.log.Warn("message relay queue full, dropping event", "message_id", msg.ID)
	}
}

func (r *MessageRelay) run() {
	defer r.wg.Done()
	for item := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.publisher.Publish(ctx, item.routingKey, item.event, item.headers); err != nil {
			observability.IncAMQPPublishError()
			r.log.Error("relay publish failed", "routing_key", item.routingKey, "message_id", item.event.Message.ID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (r *MessageRelay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// Policy selects which live connections receive a created message.
type Policy string

const (
	// PolicyAll delivers every message to every open connection.
	PolicyAll Policy = "all"
	// PolicyParticipants delivers only to the sender, the recipient and
	// group members.
	PolicyParticipants Policy = "participants"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAll:
		return PolicyAll, nil
	case PolicyParticipants:
		return PolicyParticipants, nil
	}
	return "", fmt.Errorf("unknown broadcast policy %q", s)
}

var (
	ErrHubClosed     = errors.New("hub is shut down")
	errSendQueueFull = errors.New("send queue full")
)

// Enricher resolves the users and group a message refers to.
type Enricher interface {
	Enrich(ctx context.Context, msg models.Message) (models.MessageEvent, error)
}

type Options struct {
	Policy       Policy
	SendTimeout  time.Duration
	SendBuffer   int
	PingInterval time.Duration
}

// Hub tracks open connections and fans created messages out to them.
type Hub struct {
	enricher Enricher
	opts     Options
	log      *slog.Logger

	mu     sync.RWMutex
	conns  map[*Connection]struct{}
	byUser map[int]map[*Connection]struct{}
	closed bool
}

func NewHub(enricher Enricher, opts Options, log *slog.Logger) *Hub {
	if opts.Policy == "" {
		opts.Policy = PolicyAll
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Hub{
		enricher: enricher,
		opts:     opts,
		log:      log,
		conns:    make(map[*Connection]struct{}),
		byUser:   make(map[int]map[*Connection]struct{}),
	}
}

// Open registers conn as a live connection and starts its writer.
func (h *Hub) Open(conn Conn, info ConnInfo) (*Connection, error) {
	c := newConnection(conn, info, h.opts.SendBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close(websocket.CloseGoingAway, "server shutting down")
		return nil, ErrHubClosed
	}
	c.open()
	h.conns[c] = struct{}{}
	if _, ok := h.byUser[c.UserID()]; !ok {
		h.byUser[c.UserID()] = make(map[*Connection]struct{})
	}
	h.byUser[c.UserID()][c] = struct{}{}
	h.mu.Unlock()

	observability.IncWSActive()
	go c.writeLoop(h.opts.SendTimeout, h.opts.PingInterval, func(err error) {
		h.fail(c, err)
	})
	return c, nil
}

// Close removes c from the live set and closes it. Closing twice is harmless.
func (h *Hub) Close(c *Connection) {
	if h.remove(c) {
		observability.DecWSActive()
	}
	c.close(0, "")
}

func (h *Hub) remove(c *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return false
	}
	delete(h.conns, c)
	if set, ok := h.byUser[c.UserID()]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.UserID())
		}
	}
	return true
}

// OnMessageCreated enriches msg once and queues it on every target connection.
func (h *Hub) OnMessageCreated(ctx context.Context, msg models.Message) {
	event, err := h.enricher.Enrich(ctx, msg)
	if err != nil {
		h.log.Error("enrich message for broadcast", "message_id", msg.ID, "error", err)
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal message event", "message_id", msg.ID, "error", err)
		return
	}

	for _, c := range h.targets(event) {
		h.deliver(c, payload)
	}
}

func (h *Hub) targets(event models.MessageEvent) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.opts.Policy == PolicyParticipants {
		var out []*Connection
		for _, userID := range event.ParticipantIDs() {
			for c := range h.byUser[userID] {
				out = append(out, c)
			}
		}
		return out
	}

	out := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) deliver(c *Connection, payload []byte) {
	h.mu.RLock()
	_, live := h.conns[c]
	queued := live && c.enqueue(payload)
	h.mu.RUnlock()

	switch {
	case !live:
		return
	case queued:
		observability.IncWSDelivery("queued")
	default:
		observability.IncWSDelivery("dropped")
		h.fail(c, errSendQueueFull)
	}
}

// fail closes a connection whose delivery failed. Other connections are untouched.
func (h *Hub) fail(c *Connection, err error) {
	if !h.remove(c) {
		return
	}
	observability.DecWSActive()
	c.close(0, "")

	h.log.Warn("websocket delivery failed", "conn_id", c.ID(), "user_id", c.UserID(), "error", err)
	observability.IncWSDelivery("failed")
	// fail may run on the sender's path, so the publish goes async.
	go publishLifecycle(context.Background(), "ws_error", c.Info(), err.Error())
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Connections returns a snapshot of the open connections of userID.
func (h *Hub) Connections(userID int) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connection, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		out = append(out, c)
	}
	return out
}

// Shutdown closes every connection with a going-away frame and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*Connection]struct{})
	h.byUser = make(map[int]map[*Connection]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		observability.DecWSActive()
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.log.Info("websocket hub shut down", "closed", len(conns))
}

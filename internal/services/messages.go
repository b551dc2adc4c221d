package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// MessageListener is notified of every appended message, in append order.
// Implementations must not block: they run under the store's sequencing lock.
type MessageListener interface {
	OnMessageCreated(ctx context.Context, msg models.Message)
}

type MessageStoreOption func(*MessageStore)

// WithClock replaces the wall clock used to stamp new messages.
func WithClock(now func() time.Time) MessageStoreOption {
	return func(s *MessageStore) {
		s.now = now
	}
}

// MessageStore is the append-only message log.
type MessageStore struct {
	repo   repositories.MessageRepository
	users  *UserDirectory
	groups *GroupRegistry
	log    *slog.Logger
	now    func() time.Time

	// mu sequences stamping, append and notification.
	mu        sync.Mutex
	last      time.Time
	listeners []MessageListener
}

func NewMessageStore(repo repositories.MessageRepository, users *UserDirectory, groups *GroupRegistry, log *slog.Logger, opts ...MessageStoreOption) *MessageStore {
	s := &MessageStore{
		repo:   repo,
		users:  users,
		groups: groups,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for created messages.
func (s *MessageStore) Subscribe(listener MessageListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Create validates addressing and references, appends the message and
// notifies listeners before the next message can be appended.
func (s *MessageStore) Create(ctx context.Context, senderID int, in models.SendMessageInput) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}
	if err := s.users.Exists(ctx, senderID); err != nil {
		return models.Message{}, err
	}

	msg := models.Message{SenderID: senderID, Content: in.Content}
	kind := "direct"
	if in.RecipientID != nil {
		if err := s.users.Exists(ctx, *in.RecipientID); err != nil {
			return models.Message{}, err
		}
		msg.RecipientID = lo.ToPtr(*in.RecipientID)
	} else {
		if err := s.groups.Exists(ctx, *in.GroupID); err != nil {
			return models.Message{}, err
		}
		msg.GroupID = lo.ToPtr(*in.GroupID)
		kind = "group"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Timestamps never go backwards so time order and append order agree.
	stamp := s.now().UTC().Truncate(time.Microsecond)
	if stamp.Before(s.last) {
		stamp = s.last
	}
	msg.CreatedAt = stamp

	stored, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	s.last = stamp
	observability.IncMessageCreated(kind)
	s.log.Debug("message appended", "message_id", stored.ID, "sender_id", senderID, "kind", kind)

	for _, l := range s.listeners {
		l.OnMessageCreated(ctx, stored)
	}
	return stored, nil
}

// MessagesBetween returns the direct messages exchanged by a and b in either
// direction, oldest first.
func (s *MessageStore) MessagesBetween(ctx context.Context, a, b int) ([]models.Message, error) {
	if err := s.users.Exists(ctx, a, b); err != nil {
		return nil, err
	}
	return s.repo.ListBetween(ctx, a, b)
}

// MessagesForGroup returns the whole group log, oldest first, including
// messages from users who have since left.
func (s *MessageStore) MessagesForGroup(ctx context.Context, groupID int) ([]models.Message, error) {
	if err := s.groups.Exists(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListForGroup(ctx, groupID)
}

// DirectMessagesFor returns every direct message userID sent or received, oldest first.
func (s *MessageStore) DirectMessagesFor(ctx context.Context, userID int) ([]models.Message, error) {
	return s.repo.ListDirectForUser(ctx, userID)
}

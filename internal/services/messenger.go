package services

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/auth"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// CompareFunc reports whether password matches a stored hash.
type CompareFunc func(password, hash string) (bool, error)

// Messenger is the entry point the transport layer talks to.
type Messenger struct {
	users         *UserDirectory
	groups        *GroupRegistry
	messages      *MessageStore
	conversations *ConversationAggregator
	compare       CompareFunc
	tracer        trace.Tracer
	log           *slog.Logger
}

func NewMessenger(users *UserDirectory, groups *GroupRegistry, messages *MessageStore, conversations *ConversationAggregator, log *slog.Logger) *Messenger {
	return &Messenger{
		users:         users,
		groups:        groups,
		messages:      messages,
		conversations: conversations,
		compare:       auth.ComparePassword,
		tracer:        otel.Tracer("messenger-service/services"),
		log:           log,
	}
}

func (m *Messenger) CreateUser(ctx context.Context, username, password string) (user models.User, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.CreateUser")
	defer func() { observability.EndSpan(span, err) }()

	return m.users.Create(ctx, username, password)
}

// Login checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (m *Messenger) Login(ctx context.Context, username, password string) (user models.User, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.Login")
	defer func() { observability.EndSpan(span, err) }()

	record, err := m.users.Credentials(ctx, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	ok, err := m.compare(password, record.PasswordHash)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		m.log.Debug("login rejected", "user_id", record.ID)
		return models.User{}, apperrors.ErrInvalidCredentials
	}
	return record.Public(), nil
}

func (m *Messenger) AuthenticateLookup(ctx context.Context, userID int) (user models.User, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.AuthenticateLookup", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer func() { observability.EndSpan(span, err) }()

	return m.users.Get(ctx, userID)
}

func (m *Messenger) SearchUsers(ctx context.Context, query string) (users []models.User, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.SearchUsers")
	defer func() { observability.EndSpan(span, err) }()

	return m.users.Search(ctx, query)
}

func (m *Messenger) CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (group models.GroupWithMembers, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.CreateGroup", trace.WithAttributes(attribute.Int("user.id", creatorID)))
	defer func() { observability.EndSpan(span, err) }()

	return m.groups.Create(ctx, creatorID, name, memberIDs)
}

func (m *Messenger) ListGroups(ctx context.Context, userID int) (groups []models.GroupWithMembers, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.ListGroups", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer func() { observability.EndSpan(span, err) }()

	return m.groups.GroupsForUser(ctx, userID)
}

// AddGroupMember lets an existing member add userID to the group.
func (m *Messenger) AddGroupMember(ctx context.Context, actorID, groupID, userID int) (group models.GroupWithMembers, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.AddGroupMember", trace.WithAttributes(
		attribute.Int("user.id", actorID),
		attribute.Int("group.id", groupID),
	))
	defer func() { observability.EndSpan(span, err) }()

	if err := m.requireMember(ctx, groupID, actorID); err != nil {
		return models.GroupWithMembers{}, err
	}
	if err := m.groups.AddMember(ctx, groupID, userID); err != nil {
		return models.GroupWithMembers{}, err
	}
	return m.groups.Get(ctx, groupID)
}

// RemoveGroupMember lets a member remove anyone, and anyone leave.
func (m *Messenger) RemoveGroupMember(ctx context.Context, actorID, groupID, userID int) (group models.GroupWithMembers, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.RemoveGroupMember", trace.WithAttributes(
		attribute.Int("user.id", actorID),
		attribute.Int("group.id", groupID),
	))
	defer func() { observability.EndSpan(span, err) }()

	if actorID != userID {
		if err := m.requireMember(ctx, groupID, actorID); err != nil {
			return models.GroupWithMembers{}, err
		}
	}
	if err := m.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return models.GroupWithMembers{}, err
	}
	return m.groups.Get(ctx, groupID)
}

func (m *Messenger) ListConversations(ctx context.Context, userID int) (conversations []models.Conversation, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.ListConversations", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer func() { observability.EndSpan(span, err) }()

	return m.conversations.ListForUser(ctx, userID)
}

// ListMessages returns a direct conversation or a group log. Group logs are
// readable by current members only.
func (m *Messenger) ListMessages(ctx context.Context, userID int, target models.MessageTarget) (messages []models.Message, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.ListMessages", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.CounterpartID != nil {
		return m.messages.MessagesBetween(ctx, userID, *target.CounterpartID)
	}

	if err := m.requireMember(ctx, *target.GroupID, userID); err != nil {
		return nil, err
	}
	return m.messages.MessagesForGroup(ctx, *target.GroupID)
}

func (m *Messenger) SendMessage(ctx context.Context, senderID int, in models.SendMessageInput) (msg models.Message, err error) {
	ctx, span := m.tracer.Start(ctx, "messenger.SendMessage", trace.WithAttributes(attribute.Int("user.id", senderID)))
	defer func() { observability.EndSpan(span, err) }()

	msg, err = m.messages.Create(ctx, senderID, in)
	if err != nil {
		return models.Message{}, err
	}
	span.SetAttributes(attribute.Int("message.id", msg.ID))
	return msg, nil
}

// requireMember reports ErrGroupNotFound for unknown groups and ErrForbidden
// for non-members.
func (m *Messenger) requireMember(ctx context.Context, groupID, userID int) error {
	if err := m.groups.Exists(ctx, groupID); err != nil {
		return err
	}
	member, err := m.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrForbidden
	}
	return nil
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
)

type MessengerMock struct {
	mock.Mock
}

func (m *MessengerMock) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	args := m.Called(ctx, username, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *MessengerMock) Login(ctx context.Context, username, password string) (models.User, error) {
	args := m.Called(ctx, username, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *MessengerMock) AuthenticateLookup(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *MessengerMock) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	args := m.Called(ctx, query)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *MessengerMock) CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.GroupWithMembers, error) {
	args := m.Called(ctx, creatorID, name, memberIDs)
	var group models.GroupWithMembers
	if val := args.Get(0); val != nil {
		group = val.(models.GroupWithMembers)
	}
	return group, args.Error(1)
}

func (m *MessengerMock) ListGroups(ctx context.Context, userID int) ([]models.GroupWithMembers, error) {
	args := m.Called(ctx, userID)
	var groups []models.GroupWithMembers
	if val := args.Get(0); val != nil {
		groups = val.([]models.GroupWithMembers)
	}
	return groups, args.Error(1)
}

func (m *MessengerMock) AddGroupMember(ctx context.Context, actorID, groupID, userID int) (models.GroupWithMembers, error) {
	args := m.Called(ctx, actorID, groupID, userID)
	var group models.GroupWithMembers
	if val := args.Get(0); val != nil {
		group = val.(models.GroupWithMembers)
	}
	return group, args.Error(1)
}

func (m *MessengerMock) RemoveGroupMember(ctx context.Context, actorID, groupID, userID int) (models.GroupWithMembers, error) {
	args := m.Called(ctx, actorID, groupID, userID)
	var group models.GroupWithMembers
	if val := args.Get(0); val != nil {
		group = val.(models.GroupWithMembers)
	}
	return group, args.Error(1)
}

func (m *MessengerMock) ListConversations(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *MessengerMock) ListMessages(ctx context.Context, userID int, target models.MessageTarget) ([]models.Message, error) {
	args := m.Called(ctx, userID, target)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessengerMock) SendMessage(ctx context.Context, senderID int, in models.SendMessageInput) (models.Message, error) {
	args := m.Called(ctx, senderID, in)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type TokenManagerMock struct {
	mock.Mock
}

func (m *TokenManagerMock) Issue(userID int) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManagerMock) ValidateToken(token string) (int, error) {
	args := m.Called(token)
	return args.Int(0), args.Error(1)
}

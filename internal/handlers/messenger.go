package handlers

import (
	"context"

	"messenger-service/internal/models"
)

// Messenger is the core the HTTP handlers drive.
type Messenger interface {
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	AuthenticateLookup(ctx context.Context, userID int) (models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.GroupWithMembers, error)
	ListGroups(ctx context.Context, userID int) ([]models.GroupWithMembers, error)
	AddGroupMember(ctx context.Context, actorID, groupID, userID int) (models.GroupWithMembers, error)
	RemoveGroupMember(ctx context.Context, actorID, groupID, userID int) (models.GroupWithMembers, error)
	ListConversations(ctx context.Context, userID int) ([]models.Conversation, error)
	ListMessages(ctx context.Context, userID int, target models.MessageTarget) ([]models.Message, error)
	SendMessage(ctx context.Context, senderID int, in models.SendMessageInput) (models.Message, error)
}

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int) (string, error)
}

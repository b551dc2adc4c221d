package models

import "fmt"

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation is a derived, never persisted summary of one direct
// counterpart or one group from a single user's perspective.
type Conversation struct {
	ID          string            `json:"id"`
	Type        ConversationType  `json:"type"`
	Counterpart *User             `json:"counterpart,omitempty"`
	Group       *GroupWithMembers `json:"group,omitempty"`
	LastMessage *Message          `json:"lastMessage"`
	UnreadCount int               `json:"unreadCount"`
}

// DirectConversationID builds the key of a direct conversation.
func DirectConversationID(counterpartID int) string {
	return fmt.Sprintf("%s:%d", ConversationDirect, counterpartID)
}

// GroupConversationID builds the key of a group conversation.
func GroupConversationID(groupID int) string {
	return fmt.Sprintf("%s:%d", ConversationGroup, groupID)
}

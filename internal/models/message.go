package models

import (
	"time"

	"messenger-service/internal/apperrors"
)

// Message is an immutable entry of the message log. Exactly one of
// RecipientID and GroupID is set.
type Message struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"senderId"`
	RecipientID *int      `db:"recipient_id" json:"recipientId,omitempty"`
	GroupID     *int      `db:"group_id" json:"groupId,omitempty"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// IsDirect reports whether the message is addressed to a single user.
func (m Message) IsDirect() bool {
	return m.RecipientID != nil
}

// Counterpart returns the other participant of a direct message as seen by userID.
func (m Message) Counterpart(userID int) (int, bool) {
	if m.RecipientID == nil {
		return 0, false
	}
	switch userID {
	case m.SenderID:
		return *m.RecipientID, true
	case *m.RecipientID:
		return m.SenderID, true
	}
	return 0, false
}

// Before orders messages by creation time, then by id (insertion order).
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// SendMessageInput is the addressing and body of a message to be created.
type SendMessageInput struct {
	RecipientID *int   `json:"recipientId"`
	GroupID     *int   `json:"groupId"`
	Content     string `json:"content"`
}

// Validate enforces the recipient XOR group rule.
func (in SendMessageInput) Validate() error {
	if (in.RecipientID == nil) == (in.GroupID == nil) {
		return apperrors.ErrInvalidAddressing
	}
	return nil
}

// MessageTarget selects either a direct conversation or a group log.
type MessageTarget struct {
	CounterpartID *int
	GroupID       *int
}

// Validate enforces that exactly one side of the target is set.
func (t MessageTarget) Validate() error {
	if (t.CounterpartID == nil) == (t.GroupID == nil) {
		return apperrors.ErrInvalidAddressing
	}
	return nil
}

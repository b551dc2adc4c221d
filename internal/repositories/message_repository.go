package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

// MessageRepository is the append-only message log. Every list is ascending
// by creation time with the id (insertion order) as tie-break.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListBetween(ctx context.Context, userA int, userB int) ([]models.Message, error)
	ListForGroup(ctx context.Context, groupID int) ([]models.Message, error)
	ListDirectForUser(ctx context.Context, userID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, recipient_id, group_id, content, created_at`

// AppendMessage stores a message and returns it with its assigned id.
func (r *MessageRepo) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.CreatedAt = msg.CreatedAt.UTC()
	query := r.db.Rebind(`INSERT INTO messages (sender_id, recipient_id, group_id, content, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, msg.SenderID, msg.RecipientID, msg.GroupID, msg.Content, msg.CreatedAt).Scan(&msg.ID); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListBetween returns the direct messages exchanged by two users, in either direction.
func (r *MessageRepo) ListBetween(ctx context.Context, userA int, userB int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE recipient_id IS NOT NULL
        AND ((sender_id=? AND recipient_id=?) OR (sender_id=? AND recipient_id=?))
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), userA, userB, userB, userA)
	return msgs, err
}

// ListForGroup returns the whole log of a group, including former members' messages.
func (r *MessageRepo) ListForGroup(ctx context.Context, groupID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(`SELECT `+messageColumns+` FROM messages WHERE group_id=? ORDER BY created_at ASC, id ASC`), groupID)
	return msgs, err
}

// ListDirectForUser returns every direct message sent or received by the user.
func (r *MessageRepo) ListDirectForUser(ctx context.Context, userID int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE recipient_id IS NOT NULL AND (sender_id=? OR recipient_id=?)
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), userID, userID)
	return msgs, err
}

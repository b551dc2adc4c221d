package services

import (
	"context"

	"messenger-service/internal/models"
)

// Enricher attaches public snapshots of the users and group a message refers to.
type Enricher struct {
	users  *UserDirectory
	groups *GroupRegistry
}

func NewEnricher(users *UserDirectory, groups *GroupRegistry) *Enricher {
	return &Enricher{users: users, groups: groups}
}

func (e *Enricher) Enrich(ctx context.Context, msg models.Message) (models.MessageEvent, error) {
	sender, err := e.users.Get(ctx, msg.SenderID)
	if err != nil {
		return models.MessageEvent{}, err
	}
	event := models.MessageEvent{Message: msg, Sender: sender}

	if msg.RecipientID != nil {
		recipient, err := e.users.Get(ctx, *msg.RecipientID)
		if err != nil {
			return models.MessageEvent{}, err
		}
		event.Recipient = &recipient
	}
	if msg.GroupID != nil {
		group, err := e.groups.Get(ctx, *msg.GroupID)
		if err != nil {
			return models.MessageEvent{}, err
		}
		event.Group = &group
	}
	return event, nil
}

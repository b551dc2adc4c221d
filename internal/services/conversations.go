package services

import (
	"context"
	"sort"

	"messenger-service/internal/models"
)

// ConversationAggregator derives a user's conversation list from the message
// log and the group registry. Nothing is cached; every call rescans.
type ConversationAggregator struct {
	users    *UserDirectory
	groups   *GroupRegistry
	messages *MessageStore
}

func NewConversationAggregator(users *UserDirectory, groups *GroupRegistry, messages *MessageStore) *ConversationAggregator {
	return &ConversationAggregator{users: users, groups: groups, messages: messages}
}

// ListForUser returns one entry per direct counterpart and one per current
// group, most recent activity first. Groups without messages sort last.
func (a *ConversationAggregator) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	if err := a.users.Exists(ctx, userID); err != nil {
		return nil, err
	}

	direct, err := a.messages.DirectMessagesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[int]models.Message)
	var order []int
	for _, msg := range direct {
		counterpart, ok := msg.Counterpart(userID)
		if !ok {
			continue
		}
		prev, seen := latest[counterpart]
		if !seen {
			order = append(order, counterpart)
		}
		if !seen || prev.Before(msg) {
			latest[counterpart] = msg
		}
	}

	conversations := make([]models.Conversation, 0, len(order))
	for _, counterpartID := range order {
		counterpart, err := a.users.Get(ctx, counterpartID)
		if err != nil {
			return nil, err
		}
		last := latest[counterpartID]
		conversations = append(conversations, models.Conversation{
			ID:          models.DirectConversationID(counterpartID),
			Type:        models.ConversationDirect,
			Counterpart: &counterpart,
			LastMessage: &last,
		})
	}

	groups, err := a.groups.GroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		group := groups[i]
		msgs, err := a.messages.MessagesForGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		conv := models.Conversation{
			ID:    models.GroupConversationID(group.ID),
			Type:  models.ConversationGroup,
			Group: &group,
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			conv.LastMessage = &last
		}
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return newerThan(conversations[i].LastMessage, conversations[j].LastMessage)
	})
	return conversations, nil
}

// newerThan orders by last message descending with nil treated as oldest.
func newerThan(a, b *models.Message) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return b.Before(*a)
}

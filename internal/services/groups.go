package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// GroupRegistry owns groups and their membership sets.
type GroupRegistry struct {
	groups repositories.GroupRepository
	users  *UserDirectory
	log    *slog.Logger
}

func NewGroupRegistry(groups repositories.GroupRepository, users *UserDirectory, log *slog.Logger) *GroupRegistry {
	return &GroupRegistry{groups: groups, users: users, log: log}
}

// Create stores a group whose members are the creator plus memberIDs, deduplicated.
func (r *GroupRegistry) Create(ctx context.Context, creatorID int, name string, memberIDs []int) (models.GroupWithMembers, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.GroupWithMembers{}, apperrors.ErrEmptyName
	}

	ids := lo.Uniq(append([]int{creatorID}, memberIDs...))
	if err := r.users.Exists(ctx, ids...); err != nil {
		return models.GroupWithMembers{}, err
	}

	group, err := r.groups.CreateGroup(ctx, creatorID, name, ids)
	if err != nil {
		return models.GroupWithMembers{}, err
	}
	r.log.Info("group created", "group_id", group.ID, "creator_id", creatorID, "members", len(ids))
	return r.withMembers(ctx, group)
}

func (r *GroupRegistry) Get(ctx context.Context, groupID int) (models.GroupWithMembers, error) {
	group, err := r.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.GroupWithMembers{}, err
	}
	return r.withMembers(ctx, group)
}

// Members returns the current member set ordered by user id.
func (r *GroupRegistry) Members(ctx context.Context, groupID int) ([]models.User, error) {
	if _, err := r.groups.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	ids, err := r.groups.ListMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user, err := r.users.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		members = append(members, user)
	}
	return members, nil
}

func (r *GroupRegistry) GroupsForUser(ctx context.Context, userID int) ([]models.GroupWithMembers, error) {
	groups, err := r.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.GroupWithMembers, 0, len(groups))
	for _, g := range groups {
		full, err := r.withMembers(ctx, g)
		if err != nil {
			return nil, err
		}
		result = append(result, full)
	}
	return result, nil
}

func (r *GroupRegistry) Exists(ctx context.Context, groupID int) error {
	_, err := r.groups.GetGroup(ctx, groupID)
	return err
}

func (r *GroupRegistry) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	return r.groups.IsMember(ctx, groupID, userID)
}

// AddMember is a no-op when the user already belongs to the group.
func (r *GroupRegistry) AddMember(ctx context.Context, groupID, userID int) error {
	if _, err := r.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := r.users.Exists(ctx, userID); err != nil {
		return err
	}
	return r.groups.AddMember(ctx, groupID, userID)
}

// RemoveMember is a no-op when the user is not a member.
func (r *GroupRegistry) RemoveMember(ctx context.Context, groupID, userID int) error {
	if _, err := r.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return r.groups.RemoveMember(ctx, groupID, userID)
}

func (r *GroupRegistry) withMembers(ctx context.Context, group models.Group) (models.GroupWithMembers, error) {
	members, err := r.Members(ctx, group.ID)
	if err != nil {
		return models.GroupWithMembers{}, err
	}
	return models.GroupWithMembers{Group: group, Members: members}, nil
}

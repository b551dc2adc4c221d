package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
)

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	ListMemberIDs(ctx context.Context, groupID int) ([]int, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	AddMember(ctx context.Context, groupID int, userID int) error
	RemoveMember(ctx context.Context, groupID int, userID int) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group and its members atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	group := models.Group{Name: name, CreatorID: creatorID, CreatedAt: time.Now().UTC()}
	if err = tx.QueryRowxContext(ctx, tx.Rebind(`INSERT INTO chat_groups (name, creator_id, created_at) VALUES (?, ?, ?) RETURNING id`), group.Name, group.CreatorID, group.CreatedAt).
		Scan(&group.ID); err != nil {
		return models.Group{}, err
	}

	for _, id := range memberSet(creatorID, memberIDs) {
		if _, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`), group.ID, id); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, r.db.Rebind(`SELECT id, name, creator_id, created_at FROM chat_groups WHERE id=?`), groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperrors.ErrGroupNotFound
	}
	return group, err
}

// ListMemberIDs returns the member ids of a group in ascending order.
func (r *GroupRepo) ListMemberIDs(ctx context.Context, groupID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, r.db.Rebind(`SELECT user_id FROM group_members WHERE group_id=? ORDER BY user_id ASC`), groupID)
	return ids, err
}

// ListGroupsForUser returns groups that currently include the user, oldest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.db.SelectContext(ctx, &groups, r.db.Rebind(`SELECT g.id, g.name, g.creator_id, g.created_at FROM chat_groups g INNER JOIN group_members gm ON gm.group_id = g.id WHERE gm.user_id=? ORDER BY g.id ASC`), userID)
	return groups, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=? AND user_id=?)`), groupID, userID)
	return exists, err
}

// AddMember inserts a membership; adding an existing member is a no-op.
func (r *GroupRepo) AddMember(ctx context.Context, groupID int, userID int) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO group_members (group_id, user_id) VALUES (?, ?) ON CONFLICT (group_id, user_id) DO NOTHING`), groupID, userID)
	return err
}

// RemoveMember deletes a membership; removing a non-member is a no-op.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID int, userID int) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM group_members WHERE group_id=? AND user_id=?`), groupID, userID)
	return err
}

// memberSet returns {creatorID} ∪ memberIDs, deduplicated and sorted.
func memberSet(creatorID int, memberIDs []int) []int {
	set := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

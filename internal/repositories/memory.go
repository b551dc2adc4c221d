package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
)

// MemoryUserRepo is an in-process UserRepository guarded by a mutex.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int
	byID   map[int]models.UserRecord
	byName map[string]int
}

// NewMemoryUserRepo constructs an empty MemoryUserRepo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:   make(map[int]models.UserRecord),
		byName: make(map[string]int),
	}
}

func (r *MemoryUserRepo) CreateUser(_ context.Context, username string, passwordHash string) (models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[username]; taken {
		return models.UserRecord{}, apperrors.ErrDuplicateUsername
	}
	r.nextID++
	user := models.UserRecord{
		User:         models.User{ID: r.nextID, Username: username, CreatedAt: time.Now().UTC()},
		PasswordHash: passwordHash,
	}
	r.byID[user.ID] = user
	r.byName[username] = user.ID
	return user, nil
}

func (r *MemoryUserRepo) GetUser(_ context.Context, userID int) (models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[userID]
	if !ok {
		return models.UserRecord{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepo) GetUserByUsername(_ context.Context, username string) (models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return models.UserRecord{}, apperrors.ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) ListUsers(_ context.Context) ([]models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.UserRecord, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// MemoryGroupRepo is an in-process GroupRepository guarded by a mutex.
type MemoryGroupRepo struct {
	mu      sync.RWMutex
	nextID  int
	groups  map[int]models.Group
	members map[int]map[int]struct{}
}

// NewMemoryGroupRepo constructs an empty MemoryGroupRepo.
func NewMemoryGroupRepo() *MemoryGroupRepo {
	return &MemoryGroupRepo{
		groups:  make(map[int]models.Group),
		members: make(map[int]map[int]struct{}),
	}
}

func (r *MemoryGroupRepo) CreateGroup(_ context.Context, creatorID int, name string, memberIDs []int) (models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	group := models.Group{ID: r.nextID, Name: name, CreatorID: creatorID, CreatedAt: time.Now().UTC()}
	set := make(map[int]struct{})
	for _, id := range memberSet(creatorID, memberIDs) {
		set[id] = struct{}{}
	}
	r.groups[group.ID] = group
	r.members[group.ID] = set
	return group, nil
}

func (r *MemoryGroupRepo) GetGroup(_ context.Context, groupID int) (models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[groupID]
	if !ok {
		return models.Group{}, apperrors.ErrGroupNotFound
	}
	return group, nil
}

func (r *MemoryGroupRepo) ListMemberIDs(_ context.Context, groupID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.members[groupID]))
	for id := range r.members[groupID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// ListGroupsForUser scans every membership set; fine for a single node.
func (r *MemoryGroupRepo) ListGroupsForUser(_ context.Context, userID int) ([]models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := []models.Group{}
	for groupID, set := range r.members {
		if _, ok := set[userID]; ok {
			groups = append(groups, r.groups[groupID])
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (r *MemoryGroupRepo) IsMember(_ context.Context, groupID int, userID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[groupID][userID]
	return ok, nil
}

func (r *MemoryGroupRepo) AddMember(_ context.Context, groupID int, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	set[userID] = struct{}{}
	return nil
}

func (r *MemoryGroupRepo) RemoveMember(_ context.Context, groupID int, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.members[groupID]; ok {
		delete(set, userID)
	}
	return nil
}

// MemoryMessageRepo is an in-process append-only log guarded by a mutex.
type MemoryMessageRepo struct {
	mu  sync.RWMutex
	log []models.Message
}

// NewMemoryMessageRepo constructs an empty MemoryMessageRepo.
func NewMemoryMessageRepo() *MemoryMessageRepo {
	return &MemoryMessageRepo{}
}

func (r *MemoryMessageRepo) AppendMessage(_ context.Context, msg models.Message) (models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = len(r.log) + 1
	msg.CreatedAt = msg.CreatedAt.UTC()
	r.log = append(r.log, msg)
	return msg, nil
}

func (r *MemoryMessageRepo) ListBetween(_ context.Context, userA int, userB int) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool {
		if m.RecipientID == nil {
			return false
		}
		return (m.SenderID == userA && *m.RecipientID == userB) || (m.SenderID == userB && *m.RecipientID == userA)
	}), nil
}

func (r *MemoryMessageRepo) ListForGroup(_ context.Context, groupID int) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	}), nil
}

func (r *MemoryMessageRepo) ListDirectForUser(_ context.Context, userID int) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool {
		return m.RecipientID != nil && (m.SenderID == userID || *m.RecipientID == userID)
	}), nil
}

func (r *MemoryMessageRepo) filter(keep func(models.Message) bool) []models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := []models.Message{}
	for _, m := range r.log {
		if keep(m) {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
	return msgs
}

var (
	_ UserRepository    = (*MemoryUserRepo)(nil)
	_ GroupRepository   = (*MemoryGroupRepo)(nil)
	_ MessageRepository = (*MemoryMessageRepo)(nil)
	_ UserRepository    = (*UserRepo)(nil)
	_ GroupRepository   = (*GroupRepo)(nil)
	_ MessageRepository = (*MessageRepo)(nil)
)

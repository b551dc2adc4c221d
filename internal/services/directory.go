package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"messenger-service/internal/auth"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// HashFunc turns a plaintext credential into its stored form.
type HashFunc func(password string) (string, error)

// UserDirectory owns user registration and lookup.
type UserDirectory struct {
	users repositories.UserRepository
	hash  HashFunc
	log   *slog.Logger
}

func NewUserDirectory(users repositories.UserRepository, hash HashFunc, log *slog.Logger) *UserDirectory {
	if hash == nil {
		hash = auth.HashPassword
	}
	return &UserDirectory{users: users, hash: hash, log: log}
}

// Create registers a user. The username is stored as given; uniqueness is
// checked on the exact string.
func (d *UserDirectory) Create(ctx context.Context, username, password string) (models.User, error) {
	if err := auth.ValidateCredentials(auth.Credentials{Username: username, Password: password}); err != nil {
		return models.User{}, err
	}

	hash, err := d.hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash credential: %w", err)
	}

	record, err := d.users.CreateUser(ctx, username, hash)
	if err != nil {
		return models.User{}, err
	}
	d.log.Info("user created", "user_id", record.ID, "username", record.Username)
	return record.Public(), nil
}

func (d *UserDirectory) Get(ctx context.Context, userID int) (models.User, error) {
	record, err := d.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	return record.Public(), nil
}

func (d *UserDirectory) GetByUsername(ctx context.Context, username string) (models.User, error) {
	record, err := d.users.GetUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	return record.Public(), nil
}

// Credentials returns the stored record including the credential hash.
func (d *UserDirectory) Credentials(ctx context.Context, username string) (models.UserRecord, error) {
	return d.users.GetUserByUsername(ctx, username)
}

// Search matches query as a case-insensitive substring of the username.
// A blank query returns every user.
func (d *UserDirectory) Search(ctx context.Context, query string) ([]models.User, error) {
	records, err := d.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matched := lo.FilterMap(records, func(r models.UserRecord, _ int) (models.User, bool) {
		return r.Public(), needle == "" || strings.Contains(strings.ToLower(r.Username), needle)
	})

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Username), strings.ToLower(matched[j].Username)
		if a != b {
			return a < b
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// Exists checks that every id refers to a registered user.
func (d *UserDirectory) Exists(ctx context.Context, userIDs ...int) error {
	for _, id := range userIDs {
		if _, err := d.users.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

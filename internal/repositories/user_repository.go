package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
)

// UserRepository abstracts account persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, username string, passwordHash string) (models.UserRecord, error)
	GetUser(ctx context.Context, userID int) (models.UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (models.UserRecord, error)
	ListUsers(ctx context.Context) ([]models.UserRecord, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, password_hash, created_at`

// CreateUser inserts an account, failing with ErrDuplicateUsername when the name is taken.
func (r *UserRepo) CreateUser(ctx context.Context, username string, passwordHash string) (models.UserRecord, error) {
	user := models.UserRecord{
		User:         models.User{Username: username, CreatedAt: time.Now().UTC()},
		PasswordHash: passwordHash,
	}
	query := r.db.Rebind(`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if isUniqueViolation(err) {
		return models.UserRecord{}, apperrors.ErrDuplicateUsername
	}
	if err != nil {
		return models.UserRecord{}, err
	}
	return user, nil
}

// GetUser fetches an account by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.UserRecord, error) {
	var user models.UserRecord
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id=?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRecord{}, apperrors.ErrUserNotFound
	}
	return user, err
}

// GetUserByUsername fetches an account by exact username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.UserRecord, error) {
	var user models.UserRecord
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE username=?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRecord{}, apperrors.ErrUserNotFound
	}
	return user, err
}

// ListUsers returns every account ordered by id.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	users := []models.UserRecord{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	return users, err
}

package models

import "time"

// User is the public projection of an account. It carries no credential
// material and is the only user type that leaves the core.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UserRecord is the stored account, including the credential hash owned by
// the auth collaborator.
type UserRecord struct {
	User
	PasswordHash string `db:"password_hash" json:"-"`
}

// Public strips the credential material.
func (r UserRecord) Public() User {
	return r.User
}

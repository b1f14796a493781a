package models

import "time"

// User is an account known to the service. The username is unique and
// immutable after registration.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Member is a user's public identity within a room.
type Member struct {
	UserID   string `db:"user_id" json:"user_id"`
	Username string `db:"username" json:"username"`
}

package models

import "time"

// Room is a named channel scoping message visibility and membership.
// AccessCode is set iff the room is private.
type Room struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	IsPrivate  bool      `db:"is_private" json:"is_private"`
	AccessCode *string   `db:"access_code" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

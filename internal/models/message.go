package models

import "time"

// Message is an immutable chat message. The identifier and timestamp are
// assigned by the ledger at persistence time; insertion order defines the
// room's message order.
type Message struct {
	ID        string    `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	AuthorID  string    `db:"user_id" json:"author_id"`
	Author    string    `db:"author" json:"author"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

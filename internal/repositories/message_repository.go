package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"room-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the durable message ledger for rooms.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, authorID, text string) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message with a fresh identifier and server
// timestamp. The seq column fixes intra-room order under concurrent appends.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, authorID, text string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, room_id, user_id, text) VALUES ($1, $2, $3, $4)
        RETURNING id, room_id, user_id, (SELECT u.username FROM users u WHERE u.id = messages.user_id) AS author, text, created_at`,
		uuid.NewString(), roomID, authorID, text).
		Scan(&msg.ID, &msg.RoomID, &msg.AuthorID, &msg.Author, &msg.Text, &msg.CreatedAt)
	return msg, err
}

// ListRoomMessages returns the room's history oldest first. Re-querying
// returns the same prefix plus anything appended since.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT m.id, m.room_id, m.user_id, u.username AS author, m.text, m.created_at
        FROM messages m INNER JOIN users u ON u.id = m.user_id
        WHERE m.room_id=$1 ORDER BY m.seq ASC`, roomID)
	return msgs, err
}

// GetMessage fetches a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT m.id, m.room_id, m.user_id, u.username AS author, m.text, m.created_at
        FROM messages m INNER JOIN users u ON u.id = m.user_id WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"room-chat-service/internal/models"
)

// ReceiptRepository tracks per-recipient delivery state. At most one row
// exists per (message, recipient) pair.
type ReceiptRepository interface {
	Upsert(ctx context.Context, messageID, userID string, status models.ReceiptStatus) error
	ListUnread(ctx context.Context, userID, roomID string) ([]models.Message, error)
}

// ReceiptRepo is a sqlx implementation of ReceiptRepository.
type ReceiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo constructs a ReceiptRepo.
func NewReceiptRepo(db *sqlx.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// Upsert inserts or advances the receipt for (messageID, userID). The
// conflict update is rank-guarded: status never regresses from read to
// delivered, whatever order events arrive in across processes.
func (r *ReceiptRepo) Upsert(ctx context.Context, messageID, userID string, status models.ReceiptStatus) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_receipts (id, message_id, user_id, status) VALUES ($1, $2, $3, $4)
        ON CONFLICT (message_id, user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
        WHERE CASE message_receipts.status WHEN 'read' THEN 2 ELSE 1 END
            <= CASE EXCLUDED.status WHEN 'read' THEN 2 ELSE 1 END`,
		uuid.NewString(), messageID, userID, status)
	return err
}

// ListUnread is the offline-replay query: messages in the room not authored
// by the user, with no receipt or a receipt that is not yet read. It is
// evaluated fresh on every reconnect.
func (r *ReceiptRepo) ListUnread(ctx context.Context, userID, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT m.id, m.room_id, m.user_id, u.username AS author, m.text, m.created_at
        FROM messages m
        INNER JOIN users u ON u.id = m.user_id
        LEFT JOIN message_receipts mr ON mr.message_id = m.id AND mr.user_id=$1
        WHERE m.room_id=$2 AND m.user_id <> $1 AND (mr.status IS NULL OR mr.status <> 'read')
        ORDER BY m.seq ASC`, userID, roomID)
	return msgs, err
}

package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"room-chat-service/internal/models"
)

// MembershipRepository records which users belong to which rooms.
type MembershipRepository interface {
	AddMember(ctx context.Context, userID, roomID string) error
	RemoveMember(ctx context.Context, userID, roomID string) error
	ListMembers(ctx context.Context, roomID string) ([]models.Member, error)
	IsMember(ctx context.Context, userID, roomID string) (bool, error)
}

// MembershipRepo is a sqlx implementation of MembershipRepository.
type MembershipRepo struct {
	db *sqlx.DB
}

// NewMembershipRepo constructs a MembershipRepo.
func NewMembershipRepo(db *sqlx.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

// AddMember inserts the membership pair. Joining twice is not an error and
// leaves state unchanged.
func (r *MembershipRepo) AddMember(ctx context.Context, userID, roomID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO room_members (user_id, room_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roomID)
	return err
}

// RemoveMember deletes the membership pair. Removing a non-member succeeds.
func (r *MembershipRepo) RemoveMember(ctx context.Context, userID, roomID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM room_members WHERE user_id=$1 AND room_id=$2`, userID, roomID)
	return err
}

// ListMembers returns the room's members ordered by username. An unknown
// room yields an empty list, not an error.
func (r *MembershipRepo) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	var members []models.Member
	err := r.db.SelectContext(ctx, &members, `SELECT u.id AS user_id, u.username
        FROM users u INNER JOIN room_members rm ON rm.user_id = u.id
        WHERE rm.room_id=$1 ORDER BY u.username ASC`, roomID)
	return members, err
}

// IsMember checks membership.
func (r *MembershipRepo) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM room_members WHERE user_id=$1 AND room_id=$2)`, userID, roomID)
	return exists, err
}

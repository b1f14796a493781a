package models

import "time"

// ReceiptStatus is the per-recipient delivery state of a message.
type ReceiptStatus string

const (
	ReceiptDelivered ReceiptStatus = "delivered"
	ReceiptRead      ReceiptStatus = "read"
)

// Rank orders statuses so that a receipt only ever moves forward.
func (s ReceiptStatus) Rank() int {
	switch s {
	case ReceiptRead:
		return 2
	case ReceiptDelivered:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the status is one the tracker accepts.
func (s ReceiptStatus) Valid() bool {
	return s == ReceiptDelivered || s == ReceiptRead
}

// Receipt records the current delivery state of one message for one
// recipient. There is exactly one row per (message, recipient) pair.
type Receipt struct {
	ID        string        `db:"id" json:"id"`
	MessageID string        `db:"message_id" json:"message_id"`
	UserID    string        `db:"user_id" json:"user_id"`
	Status    ReceiptStatus `db:"status" json:"status"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

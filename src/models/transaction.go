package models

import (
	"consultly/src/types"
	"time"

	"github.com/google/uuid"
)

// PaymentTransaction is the append-style ledger record created when a capture
// succeeds. One active transaction per booking; the unique index on
// payment_intent_id keeps at-least-once webhook delivery from recording a
// capture twice.
type PaymentTransaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BookingID       uint   `gorm:"index" json:"booking_id"`
	PaymentIntentID string `gorm:"uniqueIndex" json:"payment_intent_id"`
	ClientID        uint   `json:"client_id"`
	ConsultantID    uint   `json:"consultant_id"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	Status         types.TransactionStatus `gorm:"default:paid" json:"status"`
	TransferStatus types.TransferStatus    `gorm:"default:pending" json:"transfer_status"`

	TransferID     *string    `json:"transfer_id,omitempty"`
	TransferAmount *float64   `json:"transfer_amount,omitempty"`
	PlatformFee    *float64   `json:"platform_fee,omitempty"`
	TransferredAt  *time.Time `json:"transferred_at,omitempty"`

	Metadata *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Booking Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}

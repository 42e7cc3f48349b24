package models

import (
	"consultly/src/types"
	"time"
)

// Booking is the authoritative record of a reservation request and its
// lifecycle. Transfer side-fields are written exactly once, by the settlement
// engine's conditional update.
type Booking struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	ClientID     uint    `json:"client_id"`
	ConsultantID uint    `gorm:"index" json:"consultant_id"`
	ServiceID    uint    `json:"service_id"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Amount       float64 `json:"amount"`
	Currency     string  `gorm:"default:usd" json:"currency,omitempty"`
	Quantity     uint    `gorm:"default:1" json:"quantity,omitempty"`

	Status        types.BookingStatus `gorm:"default:pending" json:"status"`
	PaymentStatus types.PaymentStatus `gorm:"default:unpaid" json:"payment_status"`

	PaymentIntentRef   *string    `json:"payment_intent_ref,omitempty"`
	PaymentTransferred bool       `gorm:"default:false" json:"payment_transferred"`
	TransferRef        *string    `json:"transfer_ref,omitempty"`
	TransferAmount     *float64   `json:"transfer_amount,omitempty"`
	PlatformFeeCharged *float64   `json:"platform_fee_charged,omitempty"`
	TransferredAt      *time.Time `json:"transferred_at,omitempty"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  *string    `json:"cancelled_by,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`

	Metadata *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Client     *User       `gorm:"foreignKey:client_id" json:"client,omitempty"`
	Consultant *Consultant `gorm:"foreignKey:consultant_id" json:"consultant,omitempty"`
	Service    *Service    `gorm:"foreignKey:service_id" json:"service,omitempty"`

	types.Timestamps
}

package models

import "consultly/src/types"

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	UID   string `gorm:"uniqueIndex" json:"uid"`
	Email string `gorm:"uniqueIndex" json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `gorm:"default:client" json:"role,omitempty"`

	StripeCustomerId *string `json:"stripe_customer_id,omitempty"`
	FCMToken         *string `json:"-"`

	types.Timestamps
}

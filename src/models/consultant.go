package models

import "consultly/src/types"

// Consultant is a service provider able to receive settlement transfers once
// their connected payout account has completed onboarding.
type Consultant struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	UserID   uint   `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`

	StripeAccountID *string `json:"stripe_account_id,omitempty"`
	PayoutVerified  bool    `json:"payout_verified,omitempty"`

	User     *User      `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Services []*Service `json:"services,omitempty"`

	types.Timestamps
}

package models

import (
	"consultly/src/types"

	"github.com/google/uuid"
)

// PlatformFeeConfig is a single mutable row holding the flat fee charged per
// settlement. The settlement engine reads it fresh on every call; the value is
// frozen onto the booking at transfer time.
type PlatformFeeConfig struct {
	ID         uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	SettingKey string    `gorm:"uniqueIndex;default:platform_fee" json:"setting_key"`
	FeeAmount  float64   `json:"fee_amount"`
	UpdatedBy  *string   `json:"updated_by,omitempty"`

	types.Timestamps
}

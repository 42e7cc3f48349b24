package models

import "consultly/src/types"

type Service struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	ConsultantID uint    `json:"consultant_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Duration     uint    `gorm:"default:60" json:"duration,omitempty"`
	Price        float64 `json:"price"`
	Currency     string  `gorm:"default:usd" json:"currency,omitempty"`

	Consultant *Consultant `gorm:"foreignKey:consultant_id" json:"consultant,omitempty"`

	types.Timestamps
}

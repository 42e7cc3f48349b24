package common

import (
	"consultly/src/config"
	"consultly/src/db"
	"consultly/src/models"
	"errors"
	"log"

	"gorm.io/gorm"
)

// GetPlatformFee returns the active flat platform fee. The config row is
// created on first read so the engine never runs without a fee.
func GetPlatformFee() (float64, error) {
	db := db.GetDb()
	var cfg models.PlatformFeeConfig
	err := db.Where(&models.PlatformFeeConfig{SettingKey: "platform_fee"}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.PlatformFeeConfig{
			SettingKey: "platform_fee",
			FeeAmount:  config.DEFAULT_PLATFORM_FEE,
		}
		if err := db.Create(&cfg).Error; err != nil {
			log.Printf("[feeconfig] could not seed platform fee: %s\n", err.Error())
			return config.DEFAULT_PLATFORM_FEE, nil
		}
		return cfg.FeeAmount, nil
	}
	if err != nil {
		return 0, err
	}
	return cfg.FeeAmount, nil
}

// UpdatePlatformFee sets a new flat fee. Negative amounts are rejected at the
// binding layer; the updatedBy audit field records the admin who changed it.
func UpdatePlatformFee(amount float64, updatedBy string) (*models.PlatformFeeConfig, error) {
	db := db.GetDb()
	var cfg models.PlatformFeeConfig
	err := db.Where(&models.PlatformFeeConfig{SettingKey: "platform_fee"}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.PlatformFeeConfig{
			SettingKey: "platform_fee",
			FeeAmount:  amount,
			UpdatedBy:  &updatedBy,
		}
		if err := db.Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.FeeAmount = amount
	cfg.UpdatedBy = &updatedBy
	if err := db.Model(&cfg).Updates(map[string]any{"fee_amount": amount, "updated_by": updatedBy}).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

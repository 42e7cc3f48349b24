package common

import (
	"consultly/src/config"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestGetPlatformFee(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "platform_fee_configs"`).
		WillReturnRows(feeRows(7.5))

	fee, err := GetPlatformFee()
	assert.Nil(t, err)
	assert.Equal(t, 7.5, fee)
}

func TestGetPlatformFeeSeedsDefault(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "platform_fee_configs"`).
		WillReturnRows(sqlmock.NewRows([]string{"setting_key", "fee_amount"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "platform_fee_configs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b5f1c9ee-0000-0000-0000-000000000001"))
	mock.ExpectCommit()

	fee, err := GetPlatformFee()
	assert.Nil(t, err)
	assert.Equal(t, config.DEFAULT_PLATFORM_FEE, fee)
}

func TestUpdatePlatformFee(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "platform_fee_configs"`).
		WillReturnRows(feeRows(5.0))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "platform_fee_configs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cfg, err := UpdatePlatformFee(8.0, "admin@example.com")
	assert.Nil(t, err)
	assert.Equal(t, 8.0, cfg.FeeAmount)
	assert.Equal(t, "admin@example.com", *cfg.UpdatedBy)
}

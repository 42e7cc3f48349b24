package common

import (
	"consultly/src/lib"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func useMockRedis(t *testing.T) redismock.ClientMock {
	rd, rmock := redismock.NewClientMock()
	prev := lib.GetRedisClient()
	lib.NewRedisClient(rd)
	t.Cleanup(func() {
		lib.NewRedisClient(prev)
	})
	return rmock
}

func TestRecordTransferConfirmed(t *testing.T) {
	_, mock := newMockDB(t)
	rmock := useMockRedis(t)

	rmock.ExpectSetNX("stripe:event:evt_tr_1", 1, 72*time.Hour).SetVal(true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions"`).
		WithArgs("completed", sqlmock.AnyArg(), "tr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := RecordTransferConfirmed(context.Background(), "evt_tr_1", &stripe.Transfer{ID: "tr_1"})
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRecordTransferConfirmedReversed(t *testing.T) {
	_, mock := newMockDB(t)
	rmock := useMockRedis(t)

	rmock.ExpectSetNX("stripe:event:evt_tr_2", 1, 72*time.Hour).SetVal(true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions"`).
		WithArgs("failed", sqlmock.AnyArg(), "tr_2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := RecordTransferConfirmed(context.Background(), "evt_tr_2", &stripe.Transfer{ID: "tr_2", Reversed: true})
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRecordTransferConfirmedDuplicateEvent(t *testing.T) {
	_, mock := newMockDB(t)
	rmock := useMockRedis(t)

	rmock.ExpectSetNX("stripe:event:evt_tr_3", 1, 72*time.Hour).SetVal(false)

	err := RecordTransferConfirmed(context.Background(), "evt_tr_3", &stripe.Transfer{ID: "tr_3"})
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

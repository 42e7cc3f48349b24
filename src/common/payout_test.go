package common

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func captureRetryQueue(t *testing.T) *[]uint {
	prev := queueSettlementRetry
	queued := []uint{}
	queueSettlementRetry = func(bookingId uint) {
		queued = append(queued, bookingId)
	}
	t.Cleanup(func() {
		queueSettlementRetry = prev
	})
	return &queued
}

func sweepCandidateRows() *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns()).
		AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
			"completed", "paid", "pi_1", false, nil, nil, nil)
}

func TestSweepQueuesRetryableFailure(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sweepCandidateRows())
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows())
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sweepCandidateRows())
	mock.ExpectQuery(`SELECT (.+) FROM "consultants"`).
		WillReturnRows(consultantRows("acct_1"))

	gw := &fakeGateway{accountErr: errors.New("connection reset by peer")}
	useFakeGateway(t, gw)
	queued := captureRetryQueue(t)

	SweepPendingSettlements(context.Background())
	assert.Equal(t, []uint{1}, *queued)
}

func TestSweepHoldsOnboardingRequired(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sweepCandidateRows())
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows())
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sweepCandidateRows())
	mock.ExpectQuery(`SELECT (.+) FROM "consultants"`).
		WillReturnRows(consultantRows("acct_1"))

	gw := &fakeGateway{account: &stripe.Account{ChargesEnabled: false, PayoutsEnabled: false, DetailsSubmitted: false}}
	useFakeGateway(t, gw)
	queued := captureRetryQueue(t)

	SweepPendingSettlements(context.Background())
	assert.Empty(t, *queued)
}

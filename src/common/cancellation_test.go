package common

import (
	"consultly/src/types"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func TestCancelBookingNotFound(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()))

	_, err := CancelBooking(context.Background(), 42, "someone@example.com", "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBookingIdempotent(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"cancelled", "refunded", "pi_1", false, nil, nil, nil))

	gw := &fakeGateway{}
	useFakeGateway(t, gw)

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "changed my mind")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, types.PAYMENT_REFUNDED, result.PaymentStatus)
	assert.Equal(t, 0, gw.refundCalls)
}

func TestCancelBookingCompletedRejected(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"completed", "paid", "pi_1", true, "tr_1", 95.0, 5.0))

	_, err := CancelBooking(context.Background(), 1, "someone@example.com", "")
	assert.ErrorIs(t, err, ErrBookingNotCancellable)
}

func TestCancelBookingUnpaid(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"pending", "unpaid", nil, false, nil, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gw := &fakeGateway{}
	useFakeGateway(t, gw)

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyDone)
	assert.Equal(t, types.PAYMENT_CANCELED, result.PaymentStatus)
	assert.Equal(t, 0, gw.refundCalls)
}

func TestCancelBookingWithRefund(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"confirmed", "paid", "pi_1", false, nil, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gw := &fakeGateway{refund: &stripe.Refund{ID: "re_1"}}
	useFakeGateway(t, gw)

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "sick")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, types.PAYMENT_REFUNDED, result.PaymentStatus)
	assert.Equal(t, "re_1", result.RefundID)
	assert.Equal(t, 1, gw.refundCalls)
	assert.Equal(t, 0, gw.reversalCalls)
}

func TestCancelBookingRefundFailureStillCancels(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"confirmed", "paid", "pi_1", false, nil, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gw := &fakeGateway{refundErr: &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "stripe is down"}}
	useFakeGateway(t, gw)

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, types.PAYMENT_REFUND_FAILED, result.PaymentStatus)
	assert.NotEmpty(t, result.RefundError)
	assert.Empty(t, result.RefundID)
}

func TestCancelBookingReversesSettledTransfer(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"accepted", "paid", "pi_1", true, "tr_1", 95.0, 5.0))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gw := &fakeGateway{refund: &stripe.Refund{ID: "re_2"}}
	useFakeGateway(t, gw)

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, gw.reversalCalls)
	assert.Equal(t, 1, gw.refundCalls)
	assert.Equal(t, "re_2", result.RefundID)
}

func TestCancelBookingLosesRaceToTerminalState(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"pending", "unpaid", nil, false, nil, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"cancelled", "cancelled", nil, false, nil, nil, nil))

	result, err := CancelBooking(context.Background(), 1, "someone@example.com", "")
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.AlreadyDone)
}

package common

import (
	"consultly/src/types"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from    types.BookingStatus
		to      types.BookingStatus
		allowed bool
	}{
		{types.BOOKING_PENDING, types.BOOKING_CONFIRMED, true},
		{types.BOOKING_PENDING, types.BOOKING_ACCEPTED, true},
		{types.BOOKING_PENDING, types.BOOKING_REJECTED, true},
		{types.BOOKING_PENDING, types.BOOKING_COMPLETED, false},
		{types.BOOKING_CONFIRMED, types.BOOKING_ACCEPTED, true},
		{types.BOOKING_CONFIRMED, types.BOOKING_COMPLETED, false},
		{types.BOOKING_ACCEPTED, types.BOOKING_COMPLETED, true},
		{types.BOOKING_ACCEPTED, types.BOOKING_CONFIRMED, false},
		{types.BOOKING_COMPLETED, types.BOOKING_ACCEPTED, false},
		{types.BOOKING_REJECTED, types.BOOKING_PENDING, false},
		{types.BOOKING_CANCELED, types.BOOKING_PENDING, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.allowed, transitionAllowed(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func serviceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "consultant_id", "title", "duration", "price", "currency"}).
		AddRow(3, 7, "Tax consultation", 60, 100.0, "usd")
}

func TestCreateBookingServiceNotFound(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := CreateBooking(2, &types.CreateBookingRequestBody{
		ConsultantID: 7,
		ServiceID:    3,
		Date:         "2026-03-15",
		Time:         "14:30",
		Amount:       100.0,
	})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCreateBookingSlotTaken(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(9, 4, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"confirmed", "paid", "pi_9", false, nil, nil, nil))
	mock.ExpectRollback()

	_, err := CreateBooking(2, &types.CreateBookingRequestBody{
		ConsultantID: 7,
		ServiceID:    3,
		Date:         "2026-03-15",
		Time:         "14:30",
		Amount:       100.0,
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateBookingSuccess(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	booking, err := CreateBooking(2, &types.CreateBookingRequestBody{
		ConsultantID: 7,
		ServiceID:    3,
		Date:         "2026-03-15",
		Time:         "14:30",
		Amount:       100.0,
	})
	assert.Nil(t, err)
	assert.Equal(t, uint(11), booking.ID)
	assert.Equal(t, types.BOOKING_PENDING, booking.Status)
	assert.Equal(t, types.PAYMENT_UNPAID, booking.PaymentStatus)
	assert.Equal(t, uint(1), booking.Quantity)
	assert.Equal(t, "usd", booking.Currency)
}

func TestUpdateBookingStatusAcceptRequiresPayment(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"pending", "unpaid", nil, false, nil, nil, nil))

	_, err := UpdateBookingStatus(context.Background(), 1, types.BOOKING_ACCEPTED, "consultant")
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestUpdateBookingStatusAcceptPaid(t *testing.T) {
	_, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(1, 2, 7, 3, "2026-03-15", "14:30", 100.0, "usd", 1,
				"pending", "paid", "pi_1", false, nil, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := UpdateBookingStatus(context.Background(), 1, types.BOOKING_ACCEPTED, "consultant")
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_ACCEPTED, booking.Status)
}

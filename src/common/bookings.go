package common

import (
	"consultly/src/db"
	"consultly/src/lib"
	"consultly/src/models"
	"consultly/src/types"
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

var (
	ErrSlotUnavailable   = errors.New("the requested slot is no longer available")
	ErrServiceNotFound   = errors.New("service not found for this consultant")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrPaymentRequired   = errors.New("booking must be paid before it can be accepted")
)

// allowedTransitions captures the booking lifecycle. Absent keys are terminal.
var allowedTransitions = map[types.BookingStatus][]types.BookingStatus{
	types.BOOKING_PENDING:   {types.BOOKING_CONFIRMED, types.BOOKING_ACCEPTED, types.BOOKING_REJECTED, types.BOOKING_CANCELED},
	types.BOOKING_CONFIRMED: {types.BOOKING_ACCEPTED, types.BOOKING_REJECTED, types.BOOKING_CANCELED},
	types.BOOKING_ACCEPTED:  {types.BOOKING_COMPLETED, types.BOOKING_CANCELED},
}

func transitionAllowed(from types.BookingStatus, to types.BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateBooking reserves a consultant's slot for a client. The conflict check
// runs inside the insert transaction so two clients racing on the same slot
// cannot both get it.
func CreateBooking(clientId uint, body *types.CreateBookingRequestBody) (*models.Booking, error) {
	db := db.GetDb()

	var service models.Service
	if err := db.
		Where("id = ? AND consultant_id = ?", body.ServiceID, body.ConsultantID).
		First(&service).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	quantity := body.Quantity
	if quantity == 0 {
		quantity = 1
	}

	booking := models.Booking{
		ClientID:      clientId,
		ConsultantID:  body.ConsultantID,
		ServiceID:     body.ServiceID,
		Date:          body.Date,
		Time:          body.Time,
		Amount:        body.Amount,
		Currency:      service.Currency,
		Quantity:      quantity,
		Status:        types.BOOKING_PENDING,
		PaymentStatus: types.PAYMENT_UNPAID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Booking
		if err := tx.
			Model(&models.Booking{}).
			Where("consultant_id = ? AND date = ? AND time = ?", body.ConsultantID, body.Date, body.Time).
			Where("status IN ?", []types.BookingStatus{
				types.BOOKING_PENDING,
				types.BOOKING_CONFIRMED,
				types.BOOKING_ACCEPTED,
			}).
			Find(&existing).
			Error; err != nil {
			return err
		}
		if len(ResolveBusySlots(existing, time.Now())) > 0 {
			return ErrSlotUnavailable
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	go NotifyBookingCreated(&booking)

	return &booking, nil
}

// UpdateBookingStatus moves a booking along its lifecycle. Cancellation is
// delegated to CancelBooking so refunds are handled in one place; rejecting a
// paid booking refunds it here for the same reason a cancellation would.
func UpdateBookingStatus(ctx context.Context, bookingId uint, target types.BookingStatus, actor string) (*models.Booking, error) {
	if target == types.BOOKING_CANCELED {
		if _, err := CancelBooking(ctx, bookingId, actor, ""); err != nil {
			return nil, err
		}
		var booking models.Booking
		if err := db.GetDb().Where("id = ?", bookingId).First(&booking).Error; err != nil {
			return nil, err
		}
		return &booking, nil
	}

	db := db.GetDb()
	var booking models.Booking
	if err := db.Where("id = ?", bookingId).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !transitionAllowed(booking.Status, target) {
		return nil, ErrInvalidTransition
	}
	// Consultants only commit to a session once the money is in.
	if target == types.BOOKING_ACCEPTED && booking.PaymentStatus != types.PAYMENT_PAID {
		return nil, ErrPaymentRequired
	}

	updates := map[string]any{"status": target}

	refundNeeded := target == types.BOOKING_REJECTED &&
		booking.PaymentStatus == types.PAYMENT_PAID &&
		booking.PaymentIntentRef != nil
	if refundNeeded {
		gateway := lib.GetPaymentGateway()
		refund, err := gateway.CreateRefund(ctx, &stripe.RefundCreateParams{
			PaymentIntent: booking.PaymentIntentRef,
			Metadata:      map[string]string{"bookingId": strconv.Itoa(int(booking.ID))},
		})
		if err != nil {
			log.Printf("[bookings] refund failed while rejecting booking %d: %s\n", booking.ID, err.Error())
			updates["payment_status"] = types.PAYMENT_REFUND_FAILED
		} else {
			log.Printf("[bookings] booking %d refunded (%s) on rejection\n", booking.ID, refund.ID)
			updates["payment_status"] = types.PAYMENT_REFUNDED
		}
	}

	claimed := db.
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Updates(updates)
	if claimed.Error != nil {
		return nil, claimed.Error
	}
	if claimed.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	booking.Status = target
	if ps, ok := updates["payment_status"].(types.PaymentStatus); ok {
		booking.PaymentStatus = ps
	}

	go NotifyBookingStatusChanged(&booking, string(target))

	// Completed sessions are ready for payout; kick settlement off right away
	// instead of waiting for the sweep.
	if target == types.BOOKING_COMPLETED && booking.PaymentStatus == types.PAYMENT_PAID && !booking.PaymentTransferred {
		go func(id uint) {
			result := SettleBooking(context.Background(), id)
			if !result.Success {
				log.Printf("[bookings] settlement after completion failed for booking %d: %s\n", id, result.Error)
				if result.Retryable {
					queueSettlementRetry(id)
				}
			}
		}(booking.ID)
	}

	return &booking, nil
}

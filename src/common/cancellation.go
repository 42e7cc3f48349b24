package common

import (
	"consultly/src/db"
	"consultly/src/lib"
	"consultly/src/models"
	"consultly/src/types"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingNotCancellable = errors.New("booking can no longer be cancelled")
)

// CancelBooking cancels a booking and refunds its payment when one was
// captured. Cancelling an already-cancelled booking is a no-op success. A
// failed refund never blocks the cancellation: the booking is cancelled and
// the payment is marked refund_failed for manual follow-up.
func CancelBooking(ctx context.Context, bookingId uint, cancelledBy string, reason string) (*types.CancelResult, error) {
	db := db.GetDb()

	var booking models.Booking
	if err := db.Where("id = ?", bookingId).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == types.BOOKING_CANCELED {
		return &types.CancelResult{
			Success:       true,
			AlreadyDone:   true,
			PaymentStatus: booking.PaymentStatus,
		}, nil
	}
	if booking.Status.Terminal() {
		return nil, ErrBookingNotCancellable
	}

	refundNeeded := booking.PaymentStatus == types.PAYMENT_PAID && booking.PaymentIntentRef != nil

	var refundId string
	var refundErr string
	paymentStatus := booking.PaymentStatus

	if refundNeeded {
		gateway := lib.GetPaymentGateway()

		// Funds already forwarded to the consultant have to come back before
		// the client can be made whole.
		if booking.PaymentTransferred && booking.TransferRef != nil && booking.TransferAmount != nil {
			reversalCents := int64(math.Round(*booking.TransferAmount * 100))
			if _, err := gateway.ReverseTransfer(ctx, *booking.TransferRef, reversalCents, fmt.Sprintf("Reversal for cancelled booking #%d", booking.ID)); err != nil {
				log.Printf("[cancel] could not reverse transfer %s for booking %d: %s\n", *booking.TransferRef, booking.ID, err.Error())
			}
		}

		refund, err := gateway.CreateRefund(ctx, &stripe.RefundCreateParams{
			PaymentIntent: booking.PaymentIntentRef,
			Metadata: map[string]string{
				"bookingId": strconv.Itoa(int(booking.ID)),
				"reason":    reason,
			},
		})
		if err != nil {
			log.Printf("[cancel] refund failed for booking %d: %s\n", booking.ID, err.Error())
			paymentStatus = types.PAYMENT_REFUND_FAILED
			refundErr = err.Error()
		} else {
			paymentStatus = types.PAYMENT_REFUNDED
			refundId = refund.ID
		}
	} else if booking.PaymentStatus == types.PAYMENT_UNPAID {
		paymentStatus = types.PAYMENT_CANCELED
	}

	now := time.Now()
	claimed := db.
		Model(&models.Booking{}).
		Where("id = ? AND status NOT IN ?", booking.ID, []types.BookingStatus{
			types.BOOKING_CANCELED,
			types.BOOKING_COMPLETED,
			types.BOOKING_REJECTED,
		}).
		Updates(map[string]any{
			"status":         types.BOOKING_CANCELED,
			"payment_status": paymentStatus,
			"cancelled_at":   now,
			"cancelled_by":   cancelledBy,
			"cancel_reason":  reason,
		})
	if claimed.Error != nil {
		return nil, claimed.Error
	}
	if claimed.RowsAffected == 0 {
		// Someone else moved the booking to a terminal state first.
		var current models.Booking
		if err := db.Where("id = ?", booking.ID).First(&current).Error; err != nil {
			return nil, err
		}
		if current.Status == types.BOOKING_CANCELED {
			return &types.CancelResult{
				Success:       true,
				AlreadyDone:   true,
				PaymentStatus: current.PaymentStatus,
			}, nil
		}
		return nil, ErrBookingNotCancellable
	}

	if refundId != "" {
		if err := db.
			Model(&models.PaymentTransaction{}).
			Where("booking_id = ?", booking.ID).
			Updates(&models.PaymentTransaction{Status: types.TRANSACTION_REFUNDED}).
			Error; err != nil {
			log.Printf("[cancel] could not update ledger for booking %d: %s\n", booking.ID, err.Error())
		}
	}

	log.Printf("[cancel] booking %d cancelled by %s (payment: %s)\n", booking.ID, cancelledBy, paymentStatus)

	go NotifyBookingCancelled(&booking, reason, refundId)

	return &types.CancelResult{
		Success:       true,
		PaymentStatus: paymentStatus,
		RefundID:      refundId,
		RefundError:   refundErr,
	}, nil
}

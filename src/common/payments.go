package common

import (
	"consultly/src/config"
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

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

var (
	ErrBookingAlreadyPaid = errors.New("booking has already been paid")
	ErrBookingNotPayable  = errors.New("booking is not in a payable state")
	ErrAmountBelowMinimum = errors.New("booking amount is below the processor minimum")
)

// CreateBookingPaymentIntent opens a payment intent for a booking owned by the
// requesting client. The intent reference is stored on the booking so webhook
// deliveries and manual reconciliation can find their way back.
func CreateBookingPaymentIntent(ctx context.Context, bookingId uint, clientId uint) (*stripe.PaymentIntent, error) {
	db := db.GetDb()

	var booking models.Booking
	if err := db.Where("id = ?", bookingId).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.ClientID != clientId {
		return nil, ErrBookingNotFound
	}
	if booking.PaymentStatus == types.PAYMENT_PAID {
		return nil, ErrBookingAlreadyPaid
	}
	if booking.Status.Terminal() {
		return nil, ErrBookingNotPayable
	}

	amountCents := int64(math.Round(booking.Amount * 100))
	if amountCents < config.MINIMUM_CHARGE_CENTS {
		return nil, ErrAmountBelowMinimum
	}

	currency := booking.Currency
	if currency == "" {
		currency = "usd"
	}

	gateway := lib.GetPaymentGateway()
	intent, err := gateway.CreatePaymentIntent(ctx, &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("Payment for booking #%d", booking.ID)),
		Metadata: map[string]string{
			"bookingId":    strconv.Itoa(int(booking.ID)),
			"clientId":     strconv.Itoa(int(booking.ClientID)),
			"consultantId": strconv.Itoa(int(booking.ConsultantID)),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.
		Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Updates(&models.Booking{PaymentIntentRef: &intent.ID}).
		Error; err != nil {
		log.Printf("[payments] could not store intent ref %s on booking %d: %s\n", intent.ID, booking.ID, err.Error())
	}

	return intent, nil
}

// RecordPaymentSucceeded applies a successful capture. Webhook delivery is
// at-least-once, so the write path is idempotent twice over: a redis claim on
// the event id drops replays cheaply, and the unique payment_intent_id index
// absorbs anything that slips through.
func RecordPaymentSucceeded(ctx context.Context, eventId string, intent *stripe.PaymentIntent) error {
	if eventId != "" && !lib.ClaimWebhookEvent(ctx, eventId) {
		log.Printf("[payments] duplicate event %s ignored\n", eventId)
		return nil
	}

	bookingId, err := strconv.Atoi(intent.Metadata["bookingId"])
	if err != nil {
		return fmt.Errorf("payment intent %s has no bookingId metadata", intent.ID)
	}

	db := db.GetDb()
	var booking models.Booking
	if err := db.Where("id = ?", bookingId).First(&booking).Error; err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"payment_status":     types.PAYMENT_PAID,
			"payment_intent_ref": intent.ID,
		}
		if booking.Status == types.BOOKING_PENDING {
			updates["status"] = types.BOOKING_CONFIRMED
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Updates(updates).
			Error; err != nil {
			return err
		}

		txn := models.PaymentTransaction{
			BookingID:       booking.ID,
			PaymentIntentID: intent.ID,
			ClientID:        booking.ClientID,
			ConsultantID:    booking.ConsultantID,
			Amount:          float64(intent.Amount) / 100,
			Currency:        string(intent.Currency),
			Status:          types.TRANSACTION_PAID,
			TransferStatus:  types.TRANSFER_PENDING,
		}
		if err := tx.
			Where(&models.PaymentTransaction{PaymentIntentID: intent.ID}).
			FirstOrCreate(&txn).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[payments] booking %d captured via intent %s\n", booking.ID, intent.ID)

	go NotifyPaymentCaptured(&booking, intent.ID)

	return nil
}

// RecordPaymentFailed logs a failed capture and notifies the client. The
// booking stays unpaid so the client can retry with another method.
func RecordPaymentFailed(ctx context.Context, eventId string, intent *stripe.PaymentIntent) error {
	if eventId != "" && !lib.ClaimWebhookEvent(ctx, eventId) {
		return nil
	}

	bookingId, err := strconv.Atoi(intent.Metadata["bookingId"])
	if err != nil {
		return fmt.Errorf("payment intent %s has no bookingId metadata", intent.ID)
	}

	db := db.GetDb()
	var booking models.Booking
	if err := db.Where("id = ?", bookingId).First(&booking).Error; err != nil {
		return err
	}

	reason := "payment was declined"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}
	log.Printf("[payments] capture failed for booking %d: %s\n", booking.ID, reason)

	go NotifyPaymentFailed(&booking, reason)

	return nil
}

// RecordTransferConfirmed reconciles the ledger when Stripe reports on a
// transfer's lifecycle. A transfer that shows up reversed is marked failed,
// anything else confirms completion.
func RecordTransferConfirmed(ctx context.Context, eventId string, transfer *stripe.Transfer) error {
	if eventId != "" && !lib.ClaimWebhookEvent(ctx, eventId) {
		return nil
	}

	status := types.TRANSFER_COMPLETED
	if transfer.Reversed {
		status = types.TRANSFER_FAILED
	}

	db := db.GetDb()
	return db.
		Model(&models.PaymentTransaction{}).
		Where("transfer_id = ?", transfer.ID).
		Updates(&models.PaymentTransaction{TransferStatus: status}).
		Error
}

// RecordTransferReversed marks the ledger when Stripe confirms a reversal,
// usually following a refund of an already-settled booking.
func RecordTransferReversed(ctx context.Context, eventId string, transfer *stripe.Transfer) error {
	if eventId != "" && !lib.ClaimWebhookEvent(ctx, eventId) {
		return nil
	}

	db := db.GetDb()
	return db.
		Model(&models.PaymentTransaction{}).
		Where("transfer_id = ?", transfer.ID).
		Updates(&models.PaymentTransaction{TransferStatus: types.TRANSFER_FAILED}).
		Error
}

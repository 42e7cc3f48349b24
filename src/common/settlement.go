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
	"os"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// transferBackoff holds the delay before each retry of a failed transfer.
// Its length bounds the number of retries.
var transferBackoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
}

var sleep = time.Sleep

// queueSettlementRetry hands a retryable settlement failure to the SQS retry
// queue; the worker in boot re-attempts it after the visibility timeout.
var queueSettlementRetry = func(bookingId uint) {
	queue := os.Getenv("SETTLEMENT_QUEUE")
	if queue == "" {
		return
	}
	payload := fmt.Sprintf(`{"bookingId":%d}`, bookingId)
	if err := lib.SQSProduceMessage(queue, payload); err != nil {
		log.Printf("[settlement] could not queue retry for booking %d: %s\n", bookingId, err.Error())
	}
}

// transferIsRetryable classifies a transfer error. Stripe API faults and
// transport failures are worth retrying; everything else (invalid request,
// card errors, unknown destination) will fail the same way every time.
func transferIsRetryable(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeAPI {
			return true
		}
		return stripeErr.HTTPStatusCode >= 500
	}
	return true
}

// SettleBooking releases a paid booking's funds to the consultant's connected
// account, minus the platform fee. The transfer happens at most once no matter
// how many workers race on the same booking: the Stripe call carries an
// idempotency key derived from the booking id, and the local record is claimed
// with a conditional update on payment_transferred.
func SettleBooking(ctx context.Context, bookingId uint) *types.TransferResult {
	db := db.GetDb()

	var booking models.Booking
	if err := db.
		Preload("Consultant").
		Where("id = ?", bookingId).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.TransferResult{Code: types.CODE_NOT_FOUND, Error: "booking not found"}
		}
		return &types.TransferResult{Code: types.CODE_CONSISTENCY, Error: err.Error(), Retryable: true}
	}

	if booking.PaymentTransferred {
		result := &types.TransferResult{Success: true, Code: types.CODE_ALREADY_SETTLED}
		if booking.TransferRef != nil {
			result.TransferID = *booking.TransferRef
		}
		if booking.TransferAmount != nil {
			result.Amount = *booking.TransferAmount
		}
		if booking.PlatformFeeCharged != nil {
			result.PlatformFee = *booking.PlatformFeeCharged
		}
		return result
	}

	if booking.PaymentStatus != types.PAYMENT_PAID {
		return &types.TransferResult{
			Code:  types.CODE_VALIDATION,
			Error: fmt.Sprintf("booking %d is not paid (payment status: %s)", booking.ID, booking.PaymentStatus),
		}
	}
	if booking.Status != types.BOOKING_ACCEPTED && booking.Status != types.BOOKING_COMPLETED {
		return &types.TransferResult{
			Code:  types.CODE_VALIDATION,
			Error: fmt.Sprintf("booking %d cannot be settled in status %s", booking.ID, booking.Status),
		}
	}

	consultant := booking.Consultant
	if consultant == nil {
		return &types.TransferResult{Code: types.CODE_CONSISTENCY, Error: "booking has no consultant"}
	}
	if consultant.StripeAccountID == nil || *consultant.StripeAccountID == "" {
		return &types.TransferResult{
			Code:               types.CODE_NO_PAYOUT_ACCOUNT,
			Error:              "consultant has no payout account",
			OnboardingRequired: true,
		}
	}

	gateway := lib.GetPaymentGateway()
	account, err := gateway.RetrieveAccount(ctx, *consultant.StripeAccountID)
	if err != nil {
		return &types.TransferResult{
			Code:      types.CODE_ACCOUNT_NOT_READY,
			Error:     fmt.Sprintf("could not verify payout account: %s", err.Error()),
			Retryable: transferIsRetryable(err),
		}
	}
	if !account.ChargesEnabled || !account.PayoutsEnabled || !account.DetailsSubmitted {
		return &types.TransferResult{
			Code:               types.CODE_ACCOUNT_NOT_READY,
			Error:              "payout account has not completed onboarding",
			OnboardingRequired: true,
		}
	}

	// The fee is read fresh on every settlement so an admin change applies to
	// all transfers after it, never to ones already made.
	fee, err := GetPlatformFee()
	if err != nil {
		return &types.TransferResult{Code: types.CODE_CONSISTENCY, Error: err.Error(), Retryable: true}
	}

	amountCents := int64(math.Round(booking.Amount * 100))
	feeCents := int64(math.Round(fee * 100))
	transferCents := amountCents - feeCents
	if transferCents <= 0 {
		return &types.TransferResult{
			Code:  types.CODE_CONSISTENCY,
			Error: fmt.Sprintf("booking amount %.2f does not cover the %.2f platform fee", booking.Amount, fee),
		}
	}

	currency := booking.Currency
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.TransferCreateParams{
		Amount:      stripe.Int64(transferCents),
		Currency:    stripe.String(currency),
		Destination: consultant.StripeAccountID,
		Description: stripe.String(fmt.Sprintf("Settlement for booking #%d", booking.ID)),
		Metadata: map[string]string{
			"bookingId":    strconv.Itoa(int(booking.ID)),
			"consultantId": strconv.Itoa(int(booking.ConsultantID)),
			"platformFee":  fmt.Sprintf("%.2f", fee),
		},
	}
	params.IdempotencyKey = stripe.String(fmt.Sprintf("settlement-%d", booking.ID))

	var transfer *stripe.Transfer
	for attempt := 0; ; attempt++ {
		transfer, err = gateway.CreateTransfer(ctx, params)
		if err == nil {
			break
		}
		if !transferIsRetryable(err) {
			log.Printf("[settlement] transfer for booking %d rejected: %s\n", booking.ID, err.Error())
			return &types.TransferResult{Code: types.CODE_TRANSFER_ERROR, Error: err.Error()}
		}
		if attempt >= len(transferBackoff) {
			log.Printf("[settlement] transfer for booking %d failed after %d attempts: %s\n", booking.ID, attempt+1, err.Error())
			return &types.TransferResult{Code: types.CODE_TRANSFER_ERROR, Error: err.Error(), Retryable: true}
		}
		log.Printf("[settlement] transfer for booking %d failed (attempt %d), retrying: %s\n", booking.ID, attempt+1, err.Error())
		sleep(transferBackoff[attempt])
	}

	transferAmount := float64(transferCents) / 100
	now := time.Now()
	claimed := db.
		Model(&models.Booking{}).
		Where("id = ? AND payment_transferred = ? AND status NOT IN ?", booking.ID, false, []types.BookingStatus{
			types.BOOKING_CANCELED,
			types.BOOKING_REJECTED,
		}).
		Updates(&models.Booking{
			PaymentTransferred: true,
			TransferRef:        &transfer.ID,
			TransferAmount:     &transferAmount,
			PlatformFeeCharged: &fee,
			TransferredAt:      &now,
		})
	if claimed.Error != nil {
		// The money moved but the record didn't. Surface loudly; the
		// idempotency key makes a rerun safe.
		log.Printf("[settlement] CRITICAL: transfer %s succeeded but booking %d was not updated: %s\n", transfer.ID, booking.ID, claimed.Error.Error())
		return &types.TransferResult{Code: types.CODE_CONSISTENCY, Error: claimed.Error.Error(), Retryable: true}
	}
	if claimed.RowsAffected == 0 {
		var current models.Booking
		if err := db.Where("id = ?", booking.ID).First(&current).Error; err != nil {
			log.Printf("[settlement] CRITICAL: transfer %s succeeded but booking %d could not be re-read: %s\n", transfer.ID, booking.ID, err.Error())
			return &types.TransferResult{Code: types.CODE_CONSISTENCY, Error: err.Error(), Retryable: true}
		}
		if current.PaymentTransferred && current.TransferRef != nil {
			// A concurrent settlement won the claim. Stripe deduplicated the
			// transfer, so report the winner's references.
			result := &types.TransferResult{Success: true, Code: types.CODE_ALREADY_SETTLED, TransferID: *current.TransferRef}
			if current.TransferAmount != nil {
				result.Amount = *current.TransferAmount
			}
			if current.PlatformFeeCharged != nil {
				result.PlatformFee = *current.PlatformFeeCharged
			}
			return result
		}
		// The booking was cancelled or rejected while the transfer was in
		// flight. The client has been (or will be) refunded, so pull the
		// consultant's money back.
		log.Printf("[settlement] booking %d became %s during settlement, reversing transfer %s\n", booking.ID, current.Status, transfer.ID)
		if _, rerr := gateway.ReverseTransfer(ctx, transfer.ID, transferCents, fmt.Sprintf("Booking #%d %s during settlement", booking.ID, current.Status)); rerr != nil {
			log.Printf("[settlement] CRITICAL: could not reverse transfer %s for %s booking %d: %s\n", transfer.ID, current.Status, booking.ID, rerr.Error())
			return &types.TransferResult{
				Code:  types.CODE_TRANSFER_ERROR,
				Error: fmt.Sprintf("booking %d was %s during settlement and reversing transfer %s failed: %s", booking.ID, current.Status, transfer.ID, rerr.Error()),
			}
		}
		return &types.TransferResult{
			Code:  types.CODE_CONSISTENCY,
			Error: fmt.Sprintf("booking %d was %s during settlement; transfer %s reversed", booking.ID, current.Status, transfer.ID),
		}
	}

	if err := db.
		Model(&models.PaymentTransaction{}).
		Where("booking_id = ?", booking.ID).
		Updates(&models.PaymentTransaction{
			Status:         types.TRANSACTION_TRANSFERRED,
			TransferStatus: types.TRANSFER_COMPLETED,
			TransferID:     &transfer.ID,
			TransferAmount: &transferAmount,
			PlatformFee:    &fee,
			TransferredAt:  &now,
		}).
		Error; err != nil {
		log.Printf("[settlement] could not update ledger for booking %d: %s\n", booking.ID, err.Error())
	}

	log.Printf("[settlement] booking %d settled: transfer %s, amount %.2f, fee %.2f\n", booking.ID, transfer.ID, transferAmount, fee)

	go NotifySettlementCompleted(&booking, transfer.ID, transferAmount)

	return &types.TransferResult{
		Success:     true,
		TransferID:  transfer.ID,
		Amount:      transferAmount,
		PlatformFee: fee,
	}
}

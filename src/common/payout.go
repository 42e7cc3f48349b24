package common

import (
	"consultly/src/db"
	"consultly/src/models"
	"consultly/src/types"
	"context"
	"log"
	"time"
)

// SweepPendingSettlements settles every paid booking whose session is over but
// whose funds were never transferred, catching anything the on-completion
// trigger missed. Safe to run concurrently with manual settlement because
// SettleBooking claims each booking before writing.
func SweepPendingSettlements(ctx context.Context) {
	db := db.GetDb()

	var bookings []models.Booking
	if err := db.
		Preload("Service").
		Where("payment_status = ? AND payment_transferred = ?", types.PAYMENT_PAID, false).
		Where("status IN ?", []types.BookingStatus{types.BOOKING_ACCEPTED, types.BOOKING_COMPLETED}).
		Find(&bookings).
		Error; err != nil {
		log.Printf("[payout] sweep query failed: %s\n", err.Error())
		return
	}

	now := time.Now()
	settled := 0
	for _, b := range bookings {
		if b.Status == types.BOOKING_ACCEPTED {
			start, err := SessionStart(b.Date, b.Time)
			if err != nil {
				log.Printf("[payout] skipping booking %d, unreadable session time: %s\n", b.ID, err.Error())
				continue
			}
			duration := 60
			if b.Service != nil && b.Service.Duration > 0 {
				duration = int(b.Service.Duration)
			}
			if start.Add(time.Duration(duration) * time.Minute).After(now) {
				continue
			}
		}

		result := SettleBooking(ctx, b.ID)
		if result.Success {
			settled++
			continue
		}
		if result.OnboardingRequired {
			log.Printf("[payout] booking %d held, consultant %d needs onboarding\n", b.ID, b.ConsultantID)
			continue
		}
		log.Printf("[payout] booking %d not settled: %s\n", b.ID, result.Error)
		if result.Retryable {
			queueSettlementRetry(b.ID)
		}
	}

	if settled > 0 || len(bookings) > 0 {
		log.Printf("[payout] sweep finished: %d of %d candidates settled\n", settled, len(bookings))
	}
}

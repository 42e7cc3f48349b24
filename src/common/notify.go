package common

import (
	"consultly/src/db"
	"consultly/src/lib"
	"consultly/src/lib/mailer"
	"consultly/src/models"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
)

// Notifications are best effort. Every helper here is meant to be launched on
// its own goroutine and must never surface an error into the booking flow.

func notifyUser(userId uint, subject string, body string, data map[string]string) {
	db := db.GetDb()
	var user models.User
	if err := db.Where("id = ?", userId).First(&user).Error; err != nil {
		log.Printf("[notify] could not load user %d: %s\n", userId, err.Error())
		return
	}

	if err := mailer.NewMailerMessage(&lib.SendMailInput{
		From:     os.Getenv("EMAIL_SENDER"),
		FromName: "Consultly",
		To:       []string{user.Email},
		Subject:  subject,
		Body:     body,
	}); err != nil {
		log.Printf("[notify] could not queue mail to %s: %s\n", user.Email, err.Error())
	}

	if user.FCMToken != nil && *user.FCMToken != "" {
		lib.SendPushNotification(context.Background(), *user.FCMToken, subject, body, data)
	}
}

func publishPaymentEvent(event string, bookingId uint, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["event"] = event
	payload["bookingId"] = bookingId
	if err := lib.KafkaProduceMessage("consultly-api", "payment-events", payload); err != nil {
		log.Printf("[notify] could not publish %s for booking %d: %s\n", event, bookingId, err.Error())
	}
}

func NotifyBookingCreated(booking *models.Booking) {
	notifyUser(booking.ClientID,
		"Booking received",
		fmt.Sprintf("Your booking #%d for %s at %s has been received and is awaiting confirmation.", booking.ID, booking.Date, booking.Time),
		map[string]string{"bookingId": strconv.Itoa(int(booking.ID)), "status": string(booking.Status)},
	)
}

func NotifyBookingStatusChanged(booking *models.Booking, status string) {
	notifyUser(booking.ClientID,
		"Booking update",
		fmt.Sprintf("Your booking #%d is now %s.", booking.ID, status),
		map[string]string{"bookingId": strconv.Itoa(int(booking.ID)), "status": status},
	)
}

func NotifyPaymentCaptured(booking *models.Booking, intentId string) {
	notifyUser(booking.ClientID,
		"Payment received",
		fmt.Sprintf("We received your payment of %.2f %s for booking #%d.", booking.Amount, booking.Currency, booking.ID),
		map[string]string{"bookingId": strconv.Itoa(int(booking.ID))},
	)
	publishPaymentEvent("payment.captured", booking.ID, map[string]any{"paymentIntentId": intentId, "amount": booking.Amount})
}

func NotifyPaymentFailed(booking *models.Booking, reason string) {
	notifyUser(booking.ClientID,
		"Payment failed",
		fmt.Sprintf("Your payment for booking #%d did not go through: %s. Please try again.", booking.ID, reason),
		map[string]string{"bookingId": strconv.Itoa(int(booking.ID))},
	)
	publishPaymentEvent("payment.failed", booking.ID, map[string]any{"reason": reason})
}

func NotifySettlementCompleted(booking *models.Booking, transferId string, amount float64) {
	publishPaymentEvent("settlement.completed", booking.ID, map[string]any{"transferId": transferId, "amount": amount})
}

func NotifyBookingCancelled(booking *models.Booking, reason string, refundId string) {
	body := fmt.Sprintf("Your booking #%d has been cancelled.", booking.ID)
	if refundId != "" {
		body = fmt.Sprintf("Your booking #%d has been cancelled and your payment refunded.", booking.ID)
	}
	if reason != "" {
		body = fmt.Sprintf("%s Reason: %s", body, reason)
	}
	notifyUser(booking.ClientID, "Booking cancelled", body,
		map[string]string{"bookingId": strconv.Itoa(int(booking.ID))})
	publishPaymentEvent("booking.cancelled", booking.ID, map[string]any{"refundId": refundId, "reason": reason})
}

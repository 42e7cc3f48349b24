package main

import (
	"consultly/src/common"
	"consultly/src/db"
	"consultly/src/models"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var intent stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := common.RecordPaymentSucceeded(ctx.Copy(), event.ID, &intent); err != nil {
				log.Printf("[Stripe] Error recording capture for intent %s: %s\n", intent.ID, err.Error())
				ctx.Status(http.StatusUnprocessableEntity)
				return
			}
		case "payment_intent.payment_failed":
			var intent stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := common.RecordPaymentFailed(ctx.Copy(), event.ID, &intent); err != nil {
				log.Printf("[Stripe] Error recording failed capture for intent %s: %s\n", intent.ID, err.Error())
			}
		case "transfer.created", "transfer.updated":
			var transfer stripe.Transfer
			if err := json.Unmarshal(event.Data.Raw, &transfer); err != nil {
				log.Printf("[Stripe] Error parsing Transfer: %s\n", err.Error())
				break
			}
			if err := common.RecordTransferConfirmed(ctx.Copy(), event.ID, &transfer); err != nil {
				log.Printf("[Stripe] Error reconciling transfer %s: %s\n", transfer.ID, err.Error())
			}
		case "transfer.reversed":
			var transfer stripe.Transfer
			if err := json.Unmarshal(event.Data.Raw, &transfer); err != nil {
				log.Printf("[Stripe] Error parsing Transfer: %s\n", err.Error())
				break
			}
			if err := common.RecordTransferReversed(ctx.Copy(), event.ID, &transfer); err != nil {
				log.Printf("[Stripe] Error recording reversal for transfer %s: %s\n", transfer.ID, err.Error())
			}
		case "account.updated":
			var acc stripe.Account
			if err := json.Unmarshal(event.Data.Raw, &acc); err != nil {
				log.Printf("[Stripe] Error parsing Account: %s\n", err.Error())
				break
			}
			verified := acc.PayoutsEnabled && acc.DetailsSubmitted &&
				(acc.Requirements == nil || len(acc.Requirements.Errors) == 0)
			db := db.GetDb()
			if err := db.
				Model(&models.Consultant{}).
				Where("stripe_account_id = ?", acc.ID).
				Update("payout_verified", verified).
				Error; err != nil {
				log.Printf("[Stripe] Error updating consultant for account %s: %s\n", acc.ID, err.Error())
			}
		default:
			log.Printf("[Stripe] Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

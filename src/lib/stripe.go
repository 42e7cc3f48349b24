package lib

import (
	"context"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// PaymentGateway is the narrow processor surface the booking core depends on.
// The default implementation talks to Stripe; tests swap it out with
// NewPaymentGateway.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	RetrieveAccount(ctx context.Context, id string) (*stripe.Account, error)
	CreateTransfer(ctx context.Context, params *stripe.TransferCreateParams) (*stripe.Transfer, error)
	CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error)
	ReverseTransfer(ctx context.Context, transferID string, amountCents int64, description string) (*stripe.TransferReversal, error)
}

type stripeGateway struct{}

func (stripeGateway) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Create(ctx, params)
}

func (stripeGateway) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
}

func (stripeGateway) RetrieveAccount(ctx context.Context, id string) (*stripe.Account, error) {
	sc := GetStripeClient()
	return sc.V1Accounts.GetByID(ctx, id, &stripe.AccountRetrieveParams{})
}

func (stripeGateway) CreateTransfer(ctx context.Context, params *stripe.TransferCreateParams) (*stripe.Transfer, error) {
	sc := GetStripeClient()
	return sc.V1Transfers.Create(ctx, params)
}

func (stripeGateway) CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error) {
	sc := GetStripeClient()
	return sc.V1Refunds.Create(ctx, params)
}

func (stripeGateway) ReverseTransfer(ctx context.Context, transferID string, amountCents int64, description string) (*stripe.TransferReversal, error) {
	sc := GetStripeClient()
	return sc.V1TransferReversals.Create(ctx, &stripe.TransferReversalCreateParams{
		ID:          stripe.String(transferID),
		Amount:      stripe.Int64(amountCents),
		Description: stripe.String(description),
	})
}

var paymentGateway PaymentGateway = stripeGateway{}

func GetPaymentGateway() PaymentGateway {
	return paymentGateway
}

// NewPaymentGateway Replace gateway instance with custom implementation
func NewPaymentGateway(g PaymentGateway) PaymentGateway {
	paymentGateway = g
	return paymentGateway
}

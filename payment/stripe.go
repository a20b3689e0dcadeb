package payment

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// StripeGateway implements Gateway on top of Stripe payment intents.
type StripeGateway struct{}

// NewStripeGateway sets the Stripe secret key and returns the gateway.
func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

// CreateIntent opens a Stripe payment intent with automatic payment methods
// enabled, matching how the storefront client confirms payment.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, &Error{Op: "create intent", Err: err}
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// RetrieveIntent fetches the intent and returns Stripe's status string.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return "", &Error{Op: "retrieve intent", Err: err}
	}
	return string(pi.Status), nil
}

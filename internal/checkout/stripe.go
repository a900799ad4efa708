package checkout

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// Stripe implements Provider on top of Stripe Checkout Sessions.
type Stripe struct {
	secretKey string
}

// NewStripe configures the global Stripe client key and returns a provider.
func NewStripe(secretKey string) Stripe {
	stripe.Key = secretKey
	return Stripe{secretKey: secretKey}
}

// CreateSession opens a hosted checkout session in payment mode, card-only,
// with mandatory billing-address collection and promotion codes enabled.
func (s Stripe) CreateSession(ctx context.Context, req ProviderRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
	}
	params.Context = ctx
	if req.SuccessURL != "" {
		params.SuccessURL = stripe.String(req.SuccessURL)
	}
	if req.CancelURL != "" {
		params.CancelURL = stripe.String(req.CancelURL)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}
	for _, it := range req.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if it.Description != "" {
			productData.Description = stripe.String(it.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(it.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(it.Currency),
				UnitAmount:  stripe.Int64(it.UnitAmount),
				ProductData: productData,
			},
		})
	}

	sess, err := session.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return Session{}, fmt.Errorf("stripe: %s", stripeErr.Msg)
		}
		return Session{}, err
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v81"

	"github.com/noah-isme/backend-kursus/internal/common"
)

// Sink receives verified payment lifecycle events. Implementations carry the
// side effects (email, enrollment); the receiver only guarantees each handler
// is invoked with the full decoded payload.
type Sink interface {
	CheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error
	PaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error
	PaymentFailed(ctx context.Context, intent *stripe.PaymentIntent) error
	CheckoutExpired(ctx context.Context, sess *stripe.CheckoutSession) error
}

// NopSink implements Sink without performing any action.
type NopSink struct{}

func (NopSink) CheckoutCompleted(context.Context, *stripe.CheckoutSession) error { return nil }
func (NopSink) PaymentSucceeded(context.Context, *stripe.PaymentIntent) error    { return nil }
func (NopSink) PaymentFailed(context.Context, *stripe.PaymentIntent) error       { return nil }
func (NopSink) CheckoutExpired(context.Context, *stripe.CheckoutSession) error   { return nil }

// EnrollmentSink handles completed checkouts for course registrations. It
// sends a confirmation email when a customer email is present; enrollment
// record keeping lives upstream and is only logged here.
type EnrollmentSink struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// CheckoutCompleted sends the registration confirmation email.
func (s EnrollmentSink) CheckoutCompleted(_ context.Context, sess *stripe.CheckoutSession) error {
	email := customerEmail(sess)
	s.Logger.Info().
		Str("session_id", sess.ID).
		Str("email", email).
		Int64("amount_total", sess.AmountTotal).
		Msg("checkout completed; granting course access")
	if email == "" || s.Mail == nil {
		return nil
	}
	subject := "Course registration confirmed"
	body := fmt.Sprintf("<p>Thanks for registering! Your payment (session %s) has been received.</p>", sess.ID)
	return s.Mail.Send(email, subject, body)
}

// PaymentSucceeded logs the successful intent; the checkout-completed event
// carries the enrollment side effects.
func (s EnrollmentSink) PaymentSucceeded(_ context.Context, intent *stripe.PaymentIntent) error {
	s.Logger.Info().Str("payment_intent", intent.ID).Int64("amount", intent.Amount).Msg("payment intent succeeded")
	return nil
}

// PaymentFailed logs the failure for follow-up.
func (s EnrollmentSink) PaymentFailed(_ context.Context, intent *stripe.PaymentIntent) error {
	s.Logger.Warn().Str("payment_intent", intent.ID).Msg("payment failed")
	return nil
}

// CheckoutExpired logs abandoned sessions.
func (s EnrollmentSink) CheckoutExpired(_ context.Context, sess *stripe.CheckoutSession) error {
	s.Logger.Info().Str("session_id", sess.ID).Msg("checkout session expired")
	return nil
}

func customerEmail(sess *stripe.CheckoutSession) string {
	if sess == nil {
		return ""
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	return sess.CustomerEmail
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/noah-isme/backend-kursus/internal/common"
	"github.com/noah-isme/backend-kursus/internal/obs"
)

// DefaultMaxBodyBytes caps webhook payload size, mirroring Stripe's own limit.
const DefaultMaxBodyBytes = int64(65536)

// ErrSecretMissing is returned when no shared secret is configured. The
// request is rejected rather than silently accepted.
var ErrSecretMissing = errors.New("webhook secret not configured")

// Receiver verifies provider webhook deliveries against the shared secret
// and dispatches verified events to the configured Sink. It consumes the
// unparsed byte stream; signature verification requires the raw body.
type Receiver struct {
	Secret       string
	Sink         Sink
	Logger       zerolog.Logger
	Replay       *redis.Client
	ReplayTTL    time.Duration
	MaxBodyBytes int64
}

// Handle processes POST /webhook. Sink errors never change the 200
// acknowledgment: the provider retries on non-2xx and a failed side effect
// is not a reason to replay a verified delivery.
func (rx *Receiver) Handle(w http.ResponseWriter, r *http.Request) {
	limit := rx.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.Label(common.CodeInvalidRequest), "unable to read payload")
		return
	}

	event, err := rx.Verify(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, ErrSecretMissing) {
			rx.Logger.Warn().Msg("webhook rejected: no signing secret configured")
		} else {
			rx.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		}
		recordEvent("unknown", "rejected")
		common.WriteError(w, common.SignatureInvalid(err), false)
		return
	}

	if rx.isDuplicate(r.Context(), event.ID) {
		rx.Logger.Info().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("duplicate webhook delivery acknowledged")
		recordEvent(string(event.Type), "duplicate")
		common.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	rx.dispatch(r.Context(), event)
	common.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

// Verify checks the signature header against the raw body. Verification is
// deterministic: the same (body, signature) pair always yields the same
// result.
func (rx *Receiver) Verify(body []byte, sigHeader string) (stripe.Event, error) {
	if strings.TrimSpace(rx.Secret) == "" {
		return stripe.Event{}, ErrSecretMissing
	}
	return stripewebhook.ConstructEvent(body, sigHeader, rx.Secret)
}

// isDuplicate registers the event ID in Redis and reports whether it was
// already seen. Without Redis every delivery is treated as new.
func (rx *Receiver) isDuplicate(ctx context.Context, eventID string) bool {
	if rx.Replay == nil || rx.ReplayTTL <= 0 || eventID == "" {
		return false
	}
	ok, err := rx.Replay.SetNX(ctx, "stripe:evt:"+eventID, "1", rx.ReplayTTL).Result()
	if err != nil {
		rx.Logger.Error().Err(err).Str("event_id", eventID).Msg("replay store error")
		return false
	}
	return !ok
}

func (rx *Receiver) dispatch(ctx context.Context, event stripe.Event) {
	sink := rx.Sink
	if sink == nil {
		sink = NopSink{}
	}
	if event.Data == nil {
		rx.Logger.Error().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("event missing data payload")
		recordEvent(string(event.Type), "malformed")
		return
	}

	var err error
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &sess); err == nil {
			err = sink.CheckoutCompleted(ctx, &sess)
		}
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err = json.Unmarshal(event.Data.Raw, &intent); err == nil {
			err = sink.PaymentSucceeded(ctx, &intent)
		}
	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err = json.Unmarshal(event.Data.Raw, &intent); err == nil {
			err = sink.PaymentFailed(ctx, &intent)
		}
	case "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &sess); err == nil {
			err = sink.CheckoutExpired(ctx, &sess)
		}
	default:
		rx.Logger.Info().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("unhandled webhook event type")
		recordEvent(string(event.Type), "ignored")
		return
	}

	if err != nil {
		rx.Logger.Error().Err(err).Str("event_id", event.ID).Str("type", string(event.Type)).Msg("webhook handler failed")
		recordEvent(string(event.Type), "handler_error")
		return
	}
	recordEvent(string(event.Type), "dispatched")
}

func recordEvent(eventType, result string) {
	if obs.WebhookEventsTotal != nil {
		obs.WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
	}
}

package checkout

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kursus/internal/common"
)

// Service validates checkout requests, normalises them for the provider and
// relays the resulting session back to the caller.
type Service struct {
	Provider        Provider
	Validate        *validator.Validate
	DefaultCurrency string
	SuccessURL      string
	CancelURL       string
	Now             func() time.Time
}

// CreateSession implements the checkout relay. An empty cart never reaches
// the provider.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if s == nil || s.Provider == nil {
		return Session{}, common.Internal(errors.New("checkout service not configured"))
	}
	if len(req.LineItems) == 0 {
		return Session{}, common.InvalidRequest("no items in cart", nil)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(req); err != nil {
			return Session{}, common.InvalidRequest("invalid cart payload", err)
		}
	}

	items := make([]ProviderItem, 0, len(req.LineItems))
	for _, it := range req.LineItems {
		unit := int64(math.Round(it.Amount))
		if unit < 0 {
			return Session{}, common.InvalidRequest("line item amount must not be negative", nil)
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		currency := strings.ToLower(strings.TrimSpace(it.Currency))
		if currency == "" {
			currency = s.currency()
		}
		items = append(items, ProviderItem{
			Name:        strings.TrimSpace(it.Name),
			Description: strings.TrimSpace(it.Description),
			UnitAmount:  unit,
			Currency:    currency,
			Quantity:    qty,
		})
	}

	provReq := ProviderRequest{
		Items:         items,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		SuccessURL:    firstNonEmpty(req.SuccessURL, s.SuccessURL),
		CancelURL:     firstNonEmpty(req.CancelURL, s.CancelURL),
		Metadata:      s.deriveMetadata(req, items),
	}

	sess, err := s.Provider.CreateSession(ctx, provReq)
	if err != nil {
		return Session{}, common.ProviderError(err.Error(), err)
	}
	return sess, nil
}

// deriveMetadata attaches an informational summary to the provider call:
// item count, a human-readable list of non-tax item names and the request
// timestamp. Caller-supplied keys are kept; derived keys win on collision.
func (s *Service) deriveMetadata(req SessionRequest, items []ProviderItem) map[string]string {
	meta := make(map[string]string, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), "tax") {
			continue
		}
		names = append(names, it.Name)
	}
	meta["itemCount"] = strconv.Itoa(len(items))
	meta["itemNames"] = strings.Join(names, ", ")
	meta["requestedAt"] = s.now().UTC().Format(time.RFC3339)
	return meta
}

func (s *Service) currency() string {
	if c := strings.TrimSpace(s.DefaultCurrency); c != "" {
		return strings.ToLower(c)
	}
	return "usd"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kursus/internal/checkout"
	"github.com/noah-isme/backend-kursus/internal/common"
)

type fakeProvider struct {
	calls   int
	lastReq checkout.ProviderRequest
	session checkout.Session
	err     error
}

func (f *fakeProvider) CreateSession(_ context.Context, req checkout.ProviderRequest) (checkout.Session, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return checkout.Session{}, f.err
	}
	return f.session, nil
}

func newService(p checkout.Provider) *checkout.Service {
	return &checkout.Service{
		Provider:        p,
		Validate:        validator.New(),
		DefaultCurrency: "usd",
		SuccessURL:      "https://example.com/success.html",
		CancelURL:       "https://example.com/cancel.html",
		Now:             func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func requireAppError(t *testing.T, err error, code string) *common.AppError {
	t.Helper()
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, code, app.Code)
	return app
}

func TestCreateSessionEmptyCart(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{})
	requireAppError(t, err, common.CodeInvalidRequest)
	require.Zero(t, provider.calls, "provider must not be called for an empty cart")

	_, err = svc.CreateSession(context.Background(), checkout.SessionRequest{LineItems: []checkout.LineItem{}})
	requireAppError(t, err, common.CodeInvalidRequest)
	require.Zero(t, provider.calls)
}

func TestCreateSessionPreservesLineItemCount(t *testing.T) {
	provider := &fakeProvider{session: checkout.Session{ID: "cs_123", URL: "https://pay.example/cs_123"}}
	svc := newService(provider)

	req := checkout.SessionRequest{LineItems: []checkout.LineItem{
		{Name: "Robotics 101", Amount: 5000, Quantity: 1},
		{Name: "Lab Kit", Amount: 1250, Quantity: 2},
		{Name: "Sales Tax", Amount: 430},
	}}
	sess, err := svc.CreateSession(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "cs_123", sess.ID)
	require.Equal(t, "https://pay.example/cs_123", sess.URL)
	require.Len(t, provider.lastReq.Items, len(req.LineItems))
}

func TestCreateSessionRoundsFractionalAmounts(t *testing.T) {
	provider := &fakeProvider{session: checkout.Session{ID: "cs_1", URL: "u"}}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{LineItems: []checkout.LineItem{
		{Name: "Robotics 101", Amount: 999.6},
		{Name: "Lab Kit", Amount: 10.4},
	}})
	require.NoError(t, err)
	require.EqualValues(t, 1000, provider.lastReq.Items[0].UnitAmount)
	require.EqualValues(t, 10, provider.lastReq.Items[1].UnitAmount)
	for _, it := range provider.lastReq.Items {
		require.GreaterOrEqual(t, it.UnitAmount, int64(0))
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	provider := &fakeProvider{session: checkout.Session{ID: "cs_1", URL: "u"}}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{LineItems: []checkout.LineItem{
		{Name: "Robotics 101", Amount: 5000},
	}})
	require.NoError(t, err)
	item := provider.lastReq.Items[0]
	require.EqualValues(t, 1, item.Quantity)
	require.Equal(t, "usd", item.Currency)
	require.Equal(t, "https://example.com/success.html", provider.lastReq.SuccessURL)
	require.Equal(t, "https://example.com/cancel.html", provider.lastReq.CancelURL)
}

func TestCreateSessionRequestOverridesDefaults(t *testing.T) {
	provider := &fakeProvider{session: checkout.Session{ID: "cs_1", URL: "u"}}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{
		LineItems:  []checkout.LineItem{{Name: "Robotics 101", Amount: 5000, Currency: "EUR", Quantity: 3}},
		SuccessURL: "https://school.example/done",
		CancelURL:  "https://school.example/cancel",
	})
	require.NoError(t, err)
	item := provider.lastReq.Items[0]
	require.Equal(t, "eur", item.Currency)
	require.EqualValues(t, 3, item.Quantity)
	require.Equal(t, "https://school.example/done", provider.lastReq.SuccessURL)
	require.Equal(t, "https://school.example/cancel", provider.lastReq.CancelURL)
}

func TestCreateSessionDerivedMetadata(t *testing.T) {
	provider := &fakeProvider{session: checkout.Session{ID: "cs_1", URL: "u"}}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{
		LineItems: []checkout.LineItem{
			{Name: "Robotics 101", Amount: 5000},
			{Name: "Lab Kit", Amount: 1250},
			{Name: "Sales Tax", Amount: 430},
		},
		Metadata: map[string]string{"studentId": "s-42"},
	})
	require.NoError(t, err)
	meta := provider.lastReq.Metadata
	require.Equal(t, "s-42", meta["studentId"])
	require.Equal(t, "3", meta["itemCount"])
	require.Equal(t, "Robotics 101, Lab Kit", meta["itemNames"])
	require.Equal(t, "2025-03-01T10:00:00Z", meta["requestedAt"])
}

func TestCreateSessionInvalidFields(t *testing.T) {
	provider := &fakeProvider{}
	svc := newService(provider)

	cases := map[string]checkout.SessionRequest{
		"missing name":  {LineItems: []checkout.LineItem{{Amount: 100}}},
		"bad email":     {LineItems: []checkout.LineItem{{Name: "A", Amount: 100}}, CustomerEmail: "not-an-email"},
		"bad currency":  {LineItems: []checkout.LineItem{{Name: "A", Amount: 100, Currency: "dollars"}}},
		"negative cost": {LineItems: []checkout.LineItem{{Name: "A", Amount: -5}}},
	}
	for name, req := range cases {
		_, err := svc.CreateSession(context.Background(), req)
		requireAppError(t, err, common.CodeInvalidRequest)
		require.Zero(t, provider.calls, name)
	}
}

func TestCreateSessionProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("stripe: no such customer")}
	svc := newService(provider)

	_, err := svc.CreateSession(context.Background(), checkout.SessionRequest{LineItems: []checkout.LineItem{
		{Name: "Robotics 101", Amount: 5000},
	}})
	app := requireAppError(t, err, common.CodeProviderError)
	require.Contains(t, app.Message, "no such customer")
}

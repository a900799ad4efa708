package checkout

// LineItem is a single cart entry as submitted by the frontend. Amount is
// expressed in the minor currency unit but may arrive fractional from
// JavaScript callers; it is rounded before reaching the provider.
type LineItem struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Quantity    int64   `json:"quantity,omitempty" validate:"gte=0"`
}

// SessionRequest is the body of POST /create-checkout-session.
type SessionRequest struct {
	LineItems     []LineItem        `json:"lineItems" validate:"required,min=1,dive"`
	CustomerEmail string            `json:"customerEmail,omitempty" validate:"omitempty,email"`
	SuccessURL    string            `json:"successUrl,omitempty" validate:"omitempty,url"`
	CancelURL     string            `json:"cancelUrl,omitempty" validate:"omitempty,url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Session is the provider-issued checkout session, forwarded to the caller
// without reshaping. It is not persisted.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ProviderItem is a line item normalised for the provider call: integral
// minor-unit amount, explicit currency and quantity.
type ProviderItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Currency    string
	Quantity    int64
}

// ProviderRequest carries everything the provider needs to open a session.
type ProviderRequest struct {
	Items         []ProviderItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

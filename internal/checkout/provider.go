package checkout

import "context"

// Provider abstracts the session-creation operation of an upstream payment
// provider.
type Provider interface {
	CreateSession(ctx context.Context, req ProviderRequest) (Session, error)
}

package services

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
)

// OAuthStrategy adapts one provider's authorization-code handshake.
// Strategies are constructed at startup and handed to the OAuth bridge.
type OAuthStrategy interface {
	// Source names the provider.
	Source() domain.Source
	// AuthCodeURL returns the provider consent URL for state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the provider's raw profile.
	Exchange(ctx context.Context, code string) (*domain.RawProfile, error)
}

// OAuthResult is the outcome of a completed handshake.
type OAuthResult struct {
	Identity *domain.Identity
	Token    string
}

// OAuthSvcFacade is the OAuth bridge.
type OAuthSvcFacade interface {
	// Begin returns the consent URL and the state the callback must echo back.
	Begin(ctx context.Context, source domain.Source) (redirectURL string, state string, err error)
	// Complete validates state, exchanges code and resolves the canonical identity.
	Complete(ctx context.Context, source domain.Source, state, expectedState, code string) (*OAuthResult, error)
	// Supports reports whether a strategy is registered for source.
	Supports(source domain.Source) bool
}

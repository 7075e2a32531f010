package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// idTokenValidator checks a Google ID token against the expected audience.
type idTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type googleStrategy struct {
	config   *oauth2.Config
	validate idTokenValidator
}

// NewGoogleStrategy creates the Google strategy. The profile is read from the
// validated ID token, so no extra userinfo call is made.
func NewGoogleStrategy(clientID, clientSecret, serverURL string) portssvc.OAuthStrategy {
	return &googleStrategy{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(serverURL, domain.SourceGoogle),
			Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
}

func (s *googleStrategy) Source() domain.Source { return domain.SourceGoogle }

func (s *googleStrategy) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

func (s *googleStrategy) Exchange(ctx context.Context, code string) (*domain.RawProfile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange google code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google token response carried no id_token")
	}

	payload, err := s.validate(ctx, rawIDToken, s.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("google ID token validation failed: %w", err)
	}

	claim := func(name string) string {
		v, _ := payload.Claims[name].(string)
		return v
	}
	raw := &domain.RawProfile{
		ID:          payload.Subject,
		Name:        claim("name"),
		DisplayName: claim("name"),
		Photo:       claim("picture"),
	}
	// Unverified addresses are not trusted for account matching.
	if verified, _ := payload.Claims["email_verified"].(bool); verified {
		raw.Email = claim("email")
	}
	return raw, nil
}

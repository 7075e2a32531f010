package oauth

import (
	"context"
	"fmt"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookProfileURL = "https://graph.facebook.com/v19.0/me?fields=id,name,email,first_name,last_name,picture.type(large)"

type facebookStrategy struct {
	config     *oauth2.Config
	profileURL string
}

type facebookProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// NewFacebookStrategy creates the Facebook strategy.
func NewFacebookStrategy(appID, appSecret, serverURL string) portssvc.OAuthStrategy {
	return &facebookStrategy{
		config: &oauth2.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			RedirectURL:  CallbackURL(serverURL, domain.SourceFacebook),
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		profileURL: facebookProfileURL,
	}
}

func (s *facebookStrategy) Source() domain.Source { return domain.SourceFacebook }

func (s *facebookStrategy) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

func (s *facebookStrategy) Exchange(ctx context.Context, code string) (*domain.RawProfile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange facebook code: %w", err)
	}

	var p facebookProfile
	if err := fetchProfile(ctx, s.config, token, s.profileURL, &p); err != nil {
		return nil, fmt.Errorf("facebook: %w", err)
	}

	raw := &domain.RawProfile{
		ID:          p.ID,
		DisplayName: p.Name,
		NameParts:   domain.PersonName{GivenName: p.FirstName, FamilyName: p.LastName},
	}
	if p.Email != "" {
		raw.Emails = []string{p.Email}
	}
	if p.Picture.Data.URL != "" {
		raw.Photos = []string{p.Picture.Data.URL}
	}
	return raw, nil
}

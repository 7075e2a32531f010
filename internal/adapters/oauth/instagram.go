package oauth

import (
	"context"
	"fmt"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/instagram"
)

const instagramProfileURL = "https://graph.instagram.com/me?fields=id,username,name,biography,website,profile_picture_url"

type instagramStrategy struct {
	config     *oauth2.Config
	profileURL string
}

type instagramProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Biography  string `json:"biography"`
	Website    string `json:"website"`
	PictureURL string `json:"profile_picture_url"`
}

// NewInstagramStrategy creates the Instagram strategy. Instagram never shares an
// email address, so identities it creates finish through profile completion.
func NewInstagramStrategy(clientID, clientSecret, serverURL string) portssvc.OAuthStrategy {
	return &instagramStrategy{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(serverURL, domain.SourceInstagram),
			Scopes:       []string{"user_profile"},
			Endpoint:     instagram.Endpoint,
		},
		profileURL: instagramProfileURL,
	}
}

func (s *instagramStrategy) Source() domain.Source { return domain.SourceInstagram }

func (s *instagramStrategy) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

func (s *instagramStrategy) Exchange(ctx context.Context, code string) (*domain.RawProfile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange instagram code: %w", err)
	}

	var p instagramProfile
	if err := fetchProfile(ctx, s.config, token, s.profileURL, &p); err != nil {
		return nil, fmt.Errorf("instagram: %w", err)
	}

	return &domain.RawProfile{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.Name,
		Photo:       p.PictureURL,
		Bio:         p.Biography,
		Website:     p.Website,
	}, nil
}

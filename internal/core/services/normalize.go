package services

import (
	"strings"

	"github.com/SscSPs/storefront_app/internal/core/domain"
)

// NormalizeProfile maps a provider-shaped profile onto the canonical shape.
// It is applied only when an identity is created.
func NormalizeProfile(source domain.Source, raw domain.RawProfile) domain.Profile {
	profile := domain.Profile{
		ExternalID: raw.ID,
		Source:     source,
		Email:      strings.TrimSpace(raw.Email),
		Name:       raw.Name,
		Username:   firstNonEmpty(raw.Username, raw.DisplayName, raw.Name),
		Photo:      raw.Photo,
	}
	if profile.Photo == "" && len(raw.Photos) > 0 {
		profile.Photo = raw.Photos[0]
	}

	switch source {
	case domain.SourceInstagram:
		profile.Bio = raw.Bio
		profile.Website = raw.Website
	case domain.SourceFacebook:
		if profile.Email == "" && len(raw.Emails) > 0 {
			profile.Email = strings.TrimSpace(raw.Emails[0])
		}
		if profile.Name == "" {
			profile.Name = strings.TrimSpace(raw.NameParts.GivenName + " " + raw.NameParts.FamilyName)
		}
		if profile.Username == "" {
			profile.Username = profile.Name
		}
	}

	if source.IsOAuth() && profile.ExternalID != "" {
		link := &domain.ProviderLink{ExternalID: profile.ExternalID, Photo: profile.Photo}
		// facebook links carry only {id, photo}
		if source != domain.SourceFacebook {
			link.Username = raw.Username
			link.DisplayName = raw.DisplayName
		}
		profile.Link = link
	}
	return profile
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package dto

import (
	"time"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// IdentityResponse is the client-safe view of an identity. It never carries the password hash.
type IdentityResponse struct {
	ID            string                         `json:"id"`
	Source        string                         `json:"source"`
	Email         string                         `json:"email,omitempty"`
	Username      string                         `json:"username"`
	Name          string                         `json:"name,omitempty"`
	Photo         string                         `json:"photo,omitempty"`
	Bio           string                         `json:"bio,omitempty"`
	Website       string                         `json:"website,omitempty"`
	Confirmed     bool                           `json:"confirmed"`
	Permissions   []string                       `json:"permissions"`
	Value         decimal.Decimal                `json:"value"`
	ProviderLinks map[string]domain.ProviderLink `json:"providerLinks,omitempty"`
	CreatedAt     time.Time                      `json:"createdAt"`
}

// ToIdentityResponse converts a domain identity to its response DTO.
func ToIdentityResponse(identity *domain.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:          identity.ID,
		Source:      string(identity.Source),
		Email:       identity.Email,
		Username:    identity.Username,
		Name:        identity.Name,
		Photo:       identity.Photo,
		Bio:         identity.Bio,
		Website:     identity.Website,
		Confirmed:   identity.Confirmed,
		Permissions: append([]string{}, identity.Permissions...),
		Value:       identity.Value,
		CreatedAt:   identity.CreatedAt,
	}
	if len(identity.ProviderLinks) > 0 {
		resp.ProviderLinks = make(map[string]domain.ProviderLink, len(identity.ProviderLinks))
		for source, link := range identity.ProviderLinks {
			resp.ProviderLinks[string(source)] = link
		}
	}
	return resp
}

// LeaderboardEntry is one row of the value leaderboard.
type LeaderboardEntry struct {
	Username string          `json:"username"`
	Photo    string          `json:"photo,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// ToLeaderboard converts identities to leaderboard rows.
func ToLeaderboard(identities []domain.Identity) []LeaderboardEntry {
	rows := make([]LeaderboardEntry, len(identities))
	for i, identity := range identities {
		rows[i] = LeaderboardEntry{Username: identity.Username, Photo: identity.Photo, Value: identity.Value}
	}
	return rows
}

// AddValueRequest increments the caller's value.
type AddValueRequest struct {
	ToAdd decimal.Decimal `json:"toAdd"`
}

// ValueResponse reports the updated value.
type ValueResponse struct {
	Value decimal.Decimal `json:"value"`
}

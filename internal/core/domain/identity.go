package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Source is the provider that created an identity.
type Source string

const (
	SourceEmail     Source = "email"
	SourceFacebook  Source = "facebook"
	SourceInstagram Source = "instagram"
	SourceGoogle    Source = "google"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	switch s {
	case SourceEmail, SourceFacebook, SourceInstagram, SourceGoogle:
		return true
	}
	return false
}

// IsOAuth reports whether s is a third-party provider source.
func (s Source) IsOAuth() bool {
	return s.IsValid() && s != SourceEmail
}

// Permission is a capability string granted to an identity.
type Permission = string

const (
	PermissionViewProfile Permission = "view_profile"
	PermissionPurchase    Permission = "purchase"
)

// BaselinePermissions are granted by the confirmation transition.
var BaselinePermissions = []Permission{PermissionViewProfile, PermissionPurchase}

// ProviderLink carries per-provider metadata of a linked OAuth account.
type ProviderLink struct {
	ExternalID  string `json:"id"`
	Photo       string `json:"photo,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Identity is the canonical account record.
type Identity struct {
	ID            string                  `json:"id"`
	Source        Source                  `json:"source"`
	Email         string                  `json:"email,omitempty"`
	Username      string                  `json:"username"`
	Name          string                  `json:"name,omitempty"`
	Photo         string                  `json:"photo,omitempty"`
	Bio           string                  `json:"bio,omitempty"`
	Website       string                  `json:"website,omitempty"`
	PasswordHash  string                  `json:"-"`
	Confirmed     bool                    `json:"confirmed"`
	Permissions   []Permission            `json:"permissions"`
	Value         decimal.Decimal         `json:"value"`
	ProviderLinks map[Source]ProviderLink `json:"providerLinks,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// HasPassword reports whether the identity can authenticate with a password.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// HasAllPermissions reports whether every required permission is granted.
func HasAllPermissions(granted []Permission, required []Permission) bool {
	for _, p := range required {
		if !slices.Contains(granted, p) {
			return false
		}
	}
	return true
}

// Probe is the partial identity-matching input used to resolve a canonical record.
type Probe struct {
	ID         string
	ExternalID string
	Email      string
}

// IsEmpty reports whether the probe carries nothing to match on.
func (p Probe) IsEmpty() bool {
	return p.ID == "" && p.ExternalID == "" && p.Email == ""
}

// IdentityPatch describes a partial update. Nil fields are left untouched.
type IdentityPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	Confirmed    *bool
	Permissions  *[]Permission
	ValueDelta   *decimal.Decimal
}

// Apply mutates identity with the non-nil fields of the patch.
func (p IdentityPatch) Apply(identity *Identity) {
	if p.Email != nil {
		identity.Email = *p.Email
	}
	if p.Username != nil {
		identity.Username = *p.Username
	}
	if p.PasswordHash != nil {
		identity.PasswordHash = *p.PasswordHash
	}
	if p.Confirmed != nil {
		identity.Confirmed = *p.Confirmed
	}
	if p.Permissions != nil {
		identity.Permissions = slices.Clone(*p.Permissions)
	}
	if p.ValueDelta != nil {
		identity.Value = identity.Value.Add(*p.ValueDelta)
	}
}

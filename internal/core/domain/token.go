package domain

// TokenKind distinguishes full sessions from email round-trip tokens.
type TokenKind string

const (
	// TokenStandard represents an authenticated session.
	TokenStandard TokenKind = "standard"
	// TokenTemporary bridges confirmation and reset emails only.
	TokenTemporary TokenKind = "temporary"
)

// IsValid reports whether k is a known kind.
func (k TokenKind) IsValid() bool {
	return k == TokenStandard || k == TokenTemporary
}

// TokenPurpose binds a temporary token to the one transition it was mailed for.
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// TokenPayload is the subset of an identity embedded in a session token.
// It never carries the password hash.
type TokenPayload struct {
	ID          string       `json:"id,omitempty"`
	Source      Source       `json:"source,omitempty"`
	Email       string       `json:"email,omitempty"`
	Username    string       `json:"username,omitempty"`
	ExternalID  string       `json:"externalId,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
	Confirmed   bool         `json:"confirmed"`
	Kind        TokenKind    `json:"kind"`
	// Purpose is only carried by temporary tokens.
	Purpose TokenPurpose `json:"purpose,omitempty"`
}

// Probe returns the identity-matching input carried by the payload.
func (p *TokenPayload) Probe() Probe {
	return Probe{ID: p.ID, ExternalID: p.ExternalID, Email: p.Email}
}

// PayloadFromIdentity builds the session payload for an identity.
func PayloadFromIdentity(identity *Identity) TokenPayload {
	payload := TokenPayload{
		ID:          identity.ID,
		Source:      identity.Source,
		Email:       identity.Email,
		Username:    identity.Username,
		Permissions: append([]Permission(nil), identity.Permissions...),
		Confirmed:   identity.Confirmed,
	}
	if link, ok := identity.ProviderLinks[identity.Source]; ok {
		payload.ExternalID = link.ExternalID
	}
	return payload
}

package domain

// PersonName is the composite name some providers return.
type PersonName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// RawProfile is the provider-shaped profile handed to the identity store before
// normalization. Email-sourced registrations use the same shape.
type RawProfile struct {
	ID          string     `json:"id,omitempty"`
	Email       string     `json:"email,omitempty"`
	Emails      []string   `json:"emails,omitempty"`
	Name        string     `json:"name,omitempty"`
	NameParts   PersonName `json:"nameParts,omitempty"`
	Username    string     `json:"username,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Photo       string     `json:"photo,omitempty"`
	Photos      []string   `json:"photos,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	Website     string     `json:"website,omitempty"`

	// Password is only honored for email-sourced profiles. It is hashed before it
	// reaches the store.
	Password string `json:"-"`
}

// Profile is the canonical shape produced by normalization.
type Profile struct {
	ExternalID string
	Source     Source
	Email      string
	Name       string
	Username   string
	Photo      string
	Bio        string
	Website    string
	Link       *ProviderLink
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the row shape of the identities table.
type Identity struct {
	ID           string          `db:"id"`
	Source       string          `db:"source"`
	Email        string          `db:"email"`
	Username     string          `db:"username"`
	Name         string          `db:"name"`
	Photo        string          `db:"photo"`
	Bio          string          `db:"bio"`
	Website      string          `db:"website"`
	PasswordHash string          `db:"password_hash"`
	Confirmed    bool            `db:"confirmed"`
	Permissions  []string        `db:"permissions"`
	Value        decimal.Decimal `db:"value"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// ProviderLink is the row shape of the identity_provider_links table.
type ProviderLink struct {
	IdentityID  string `db:"identity_id"`
	Source      string `db:"source"`
	ExternalID  string `db:"external_id"`
	Photo       string `db:"photo"`
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
}

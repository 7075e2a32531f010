package pgsql

import (
	"errors"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// uniqueFields maps unique constraint names to the logical field they protect.
var uniqueFields = map[string]string{
	"identities_pkey":                      "id",
	"identities_email_key":                 "email",
	"identities_username_key":              "username",
	"identity_provider_links_pkey":         "provider",
	"identity_provider_links_provider_key": "provider",
}

// classifyUniqueViolation converts a unique violation into a ConflictError naming
// the offending field. Other errors are returned unchanged.
func classifyUniqueViolation(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	field, ok := uniqueFields[pgErr.ConstraintName]
	if !ok {
		field = "unique"
	}
	return apperrors.NewConflictError(op, field)
}

package repositories

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
)

// IdentityReader defines read operations for identity records.
// Lookups return apperrors.ErrNotFound when nothing matches.
type IdentityReader interface {
	// FindByID retrieves an identity by its primary identifier.
	FindByID(ctx context.Context, id string) (*domain.Identity, error)

	// FindByProvider retrieves the identity linked to (source, externalID).
	FindByProvider(ctx context.Context, source domain.Source, externalID string) (*domain.Identity, error)

	// FindByEmail retrieves an identity by email (case-insensitive).
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)

	// FindByUsername retrieves an email-sourced identity by username (case-insensitive).
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)

	// ListByValue returns identities ordered by value, highest first.
	ListByValue(ctx context.Context, limit int) ([]domain.Identity, error)
}

// IdentityWriter defines write operations for identity records.
// Uniqueness violations surface as *apperrors.ConflictError.
type IdentityWriter interface {
	// Create persists a new identity and its provider links atomically.
	Create(ctx context.Context, identity domain.Identity) error

	// Update applies patch to the identity with the given id and returns the new state.
	Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error)
}

// IdentityLifecycleManager defines hard removal of identities.
type IdentityLifecycleManager interface {
	// Delete removes the identity and its provider links.
	Delete(ctx context.Context, id string) error
}

// IdentityRepositoryFacade combines all identity repository interfaces.
type IdentityRepositoryFacade interface {
	IdentityReader
	IdentityWriter
	IdentityLifecycleManager
}

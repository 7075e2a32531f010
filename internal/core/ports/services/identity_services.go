package services

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
)

// IdentityReaderSvc resolves canonical identities.
type IdentityReaderSvc interface {
	// FindIdentity resolves probe by id, then (source, externalId), then email.
	// It returns apperrors.ErrNotFound when nothing matches.
	FindIdentity(ctx context.Context, source domain.Source, probe domain.Probe) (*domain.Identity, error)
	// FindByLogin resolves a login identifier (email, or username of an email account).
	FindByLogin(ctx context.Context, identifier string) (*domain.Identity, error)
	// ListIdentities returns identities ordered by value, highest first.
	ListIdentities(ctx context.Context, limit int) ([]domain.Identity, error)
}

// IdentityWriterSvc creates and mutates identities.
type IdentityWriterSvc interface {
	// FindOrCreateIdentity resolves the profile or creates a normalized record.
	FindOrCreateIdentity(ctx context.Context, source domain.Source, raw domain.RawProfile) (*domain.Identity, error)
	// CreateIdentity always creates; a duplicate surfaces as *apperrors.ConflictError.
	CreateIdentity(ctx context.Context, source domain.Source, raw domain.RawProfile) (*domain.Identity, error)
	// UpdateIdentity resolves probe and applies patch.
	UpdateIdentity(ctx context.Context, source domain.Source, probe domain.Probe, patch domain.IdentityPatch) (*domain.Identity, error)
	// DeleteIdentity resolves probe and removes the record.
	DeleteIdentity(ctx context.Context, source domain.Source, probe domain.Probe) error
}

// IdentitySvcFacade combines all identity store adapter interfaces.
type IdentitySvcFacade interface {
	IdentityReaderSvc
	IdentityWriterSvc
}

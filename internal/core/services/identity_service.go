package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// identityService is the identity store adapter. It owns probe resolution and
// profile normalization; uniqueness is enforced by the repository.
type identityService struct {
	BaseService
	identityRepo portsrepo.IdentityRepositoryFacade
	now          func() time.Time
}

// IdentityServiceOption is a function that configures an identityService
type IdentityServiceOption func(*identityService)

// WithIdentityClock overrides the clock used for audit timestamps.
func WithIdentityClock(now func() time.Time) IdentityServiceOption {
	return func(s *identityService) {
		s.now = now
	}
}

// NewIdentityService creates a new identity service.
func NewIdentityService(identityRepo portsrepo.IdentityRepositoryFacade, opts ...IdentityServiceOption) portssvc.IdentitySvcFacade {
	s := &identityService{
		identityRepo: identityRepo,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindIdentity resolves probe by primary id, then by (source, externalId), then by email.
// A probe id that parses as a store identifier is authoritative: a miss does not fall
// through to the provider or email lookups, so one provider cannot claim another's record.
func (s *identityService) FindIdentity(ctx context.Context, source domain.Source, probe domain.Probe) (*domain.Identity, error) {
	if probe.ID != "" {
		if _, err := uuid.Parse(probe.ID); err == nil {
			return s.identityRepo.FindByID(ctx, probe.ID)
		}
	}
	if probe.ExternalID != "" {
		return s.identityRepo.FindByProvider(ctx, source, probe.ExternalID)
	}
	if email := strings.TrimSpace(probe.Email); email != "" {
		return s.identityRepo.FindByEmail(ctx, email)
	}
	return nil, fmt.Errorf("empty identity probe: %w", apperrors.ErrNotFound)
}

// FindByLogin treats identifiers containing "@" as emails and anything else as the
// username of an email-sourced account.
func (s *identityService) FindByLogin(ctx context.Context, identifier string) (*domain.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("empty login identifier: %w", apperrors.ErrNotFound)
	}
	if strings.Contains(identifier, "@") {
		return s.identityRepo.FindByEmail(ctx, identifier)
	}
	return s.identityRepo.FindByUsername(ctx, identifier)
}

func (s *identityService) ListIdentities(ctx context.Context, limit int) ([]domain.Identity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	identities, err := s.identityRepo.ListByValue(ctx, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list identities", slog.Int("limit", limit))
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	return identities, nil
}

// FindOrCreateIdentity resolves the normalized profile and creates it when nothing matches.
// Two concurrent callers for the same new profile yield one record; the losing
// creator receives the repository's *apperrors.ConflictError.
func (s *identityService) FindOrCreateIdentity(ctx context.Context, source domain.Source, raw domain.RawProfile) (*domain.Identity, error) {
	profile := NormalizeProfile(source, raw)
	probe := domain.Probe{ExternalID: profile.ExternalID, Email: profile.Email}

	existing, err := s.FindIdentity(ctx, source, probe)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to resolve identity", slog.String("source", string(source)))
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return s.CreateIdentity(ctx, source, raw)
}

// CreateIdentity normalizes raw and persists a new unconfirmed identity.
func (s *identityService) CreateIdentity(ctx context.Context, source domain.Source, raw domain.RawProfile) (*domain.Identity, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("unknown source %q: %w", source, apperrors.ErrValidation)
	}
	profile := NormalizeProfile(source, raw)
	if source == domain.SourceEmail && profile.Email == "" {
		return nil, fmt.Errorf("email identities require an email: %w", apperrors.ErrValidation)
	}
	if source.IsOAuth() && profile.ExternalID == "" {
		return nil, fmt.Errorf("%s identities require an external id: %w", source, apperrors.ErrValidation)
	}

	now := s.now().UTC()
	identity := domain.Identity{
		ID:          uuid.NewString(),
		Source:      source,
		Email:       profile.Email,
		Username:    profile.Username,
		Name:        profile.Name,
		Photo:       profile.Photo,
		Bio:         profile.Bio,
		Website:     profile.Website,
		Confirmed:   false,
		Permissions: []domain.Permission{},
		Value:       decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if source == domain.SourceEmail && raw.Password != "" {
		hash, err := utils.HashPassword(raw.Password)
		if err != nil {
			s.LogError(ctx, err, "Failed to hash password")
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		identity.PasswordHash = hash
	}
	if profile.Link != nil {
		identity.ProviderLinks = map[domain.Source]domain.ProviderLink{source: *profile.Link}
	}

	if err := s.identityRepo.Create(ctx, identity); err != nil {
		if field, ok := apperrors.ConflictField(err); ok {
			s.LogInfo(ctx, "Identity already exists", slog.String("source", string(source)), slog.String("field", field))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to create identity", slog.String("source", string(source)))
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.LogInfo(ctx, "Identity created", slog.String("identity_id", identity.ID), slog.String("source", string(source)))
	return &identity, nil
}

func (s *identityService) UpdateIdentity(ctx context.Context, source domain.Source, probe domain.Probe, patch domain.IdentityPatch) (*domain.Identity, error) {
	existing, err := s.FindIdentity(ctx, source, probe)
	if err != nil {
		return nil, err
	}
	updated, err := s.identityRepo.Update(ctx, existing.ID, patch)
	if err != nil {
		if _, ok := apperrors.ConflictField(err); ok || errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to update identity", slog.String("identity_id", existing.ID))
		return nil, fmt.Errorf("failed to update identity: %w", err)
	}
	return updated, nil
}

func (s *identityService) DeleteIdentity(ctx context.Context, source domain.Source, probe domain.Probe) error {
	existing, err := s.FindIdentity(ctx, source, probe)
	if err != nil {
		return err
	}
	if err := s.identityRepo.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.LogError(ctx, err, "Failed to delete identity", slog.String("identity_id", existing.ID))
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	s.LogInfo(ctx, "Identity deleted", slog.String("identity_id", existing.ID))
	return nil
}

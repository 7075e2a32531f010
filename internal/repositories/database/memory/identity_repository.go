// Package memory provides in-process repositories for development and tests.
// They honor the same uniqueness constraints as the Postgres schema.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
)

type providerKey struct {
	source     domain.Source
	externalID string
}

// IdentityRepository keeps identities in maps guarded by a single mutex, so the
// check-and-insert of Create is atomic the way a unique index is.
type IdentityRepository struct {
	mu         sync.RWMutex
	byID       map[string]domain.Identity
	byEmail    map[string]string
	byUsername map[string]string
	byProvider map[providerKey]string
	now        func() time.Time
}

var _ portsrepo.IdentityRepositoryFacade = (*IdentityRepository)(nil)

// NewIdentityRepository creates an empty repository.
func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:       make(map[string]domain.Identity),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		byProvider: make(map[providerKey]string),
		now:        time.Now,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// usernameKey returns the unique username key; only non-empty usernames of email
// accounts are unique.
func usernameKey(identity domain.Identity) string {
	if identity.Source != domain.SourceEmail {
		return ""
	}
	return normalizeKey(identity.Username)
}

func clone(identity domain.Identity) domain.Identity {
	identity.Permissions = slices.Clone(identity.Permissions)
	if identity.ProviderLinks != nil {
		identity.ProviderLinks = maps.Clone(identity.ProviderLinks)
	}
	return identity
}

func (r *IdentityRepository) lookup(id string, found bool) (*domain.Identity, error) {
	if !found {
		return nil, apperrors.ErrNotFound
	}
	identity, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := clone(identity)
	return &c, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return r.lookup(id, ok)
}

func (r *IdentityRepository) FindByProvider(ctx context.Context, source domain.Source, externalID string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byProvider[providerKey{source: source, externalID: externalID}]
	return r.lookup(id, ok)
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeKey(email)]
	return r.lookup(id, ok)
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[normalizeKey(username)]
	return r.lookup(id, ok)
}

func (r *IdentityRepository) ListByValue(ctx context.Context, limit int) ([]domain.Identity, error) {
	r.mu.RLock()
	identities := make([]domain.Identity, 0, len(r.byID))
	for _, identity := range r.byID {
		identities = append(identities, clone(identity))
	}
	r.mu.RUnlock()

	slices.SortFunc(identities, func(a, b domain.Identity) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(identities) > limit {
		identities = identities[:limit]
	}
	return identities, nil
}

// checkUnique reports the first unique field of identity already held by another id.
func (r *IdentityRepository) checkUnique(identity domain.Identity) string {
	if key := normalizeKey(identity.Email); key != "" {
		if owner, ok := r.byEmail[key]; ok && owner != identity.ID {
			return "email"
		}
	}
	if key := usernameKey(identity); key != "" {
		if owner, ok := r.byUsername[key]; ok && owner != identity.ID {
			return "username"
		}
	}
	for source, link := range identity.ProviderLinks {
		if owner, ok := r.byProvider[providerKey{source: source, externalID: link.ExternalID}]; ok && owner != identity.ID {
			return "provider"
		}
	}
	return ""
}

func (r *IdentityRepository) index(identity domain.Identity) {
	if key := normalizeKey(identity.Email); key != "" {
		r.byEmail[key] = identity.ID
	}
	if key := usernameKey(identity); key != "" {
		r.byUsername[key] = identity.ID
	}
	for source, link := range identity.ProviderLinks {
		r.byProvider[providerKey{source: source, externalID: link.ExternalID}] = identity.ID
	}
}

func (r *IdentityRepository) unindex(identity domain.Identity) {
	if key := normalizeKey(identity.Email); key != "" {
		delete(r.byEmail, key)
	}
	if key := usernameKey(identity); key != "" {
		delete(r.byUsername, key)
	}
	for source, link := range identity.ProviderLinks {
		delete(r.byProvider, providerKey{source: source, externalID: link.ExternalID})
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[identity.ID]; exists {
		return apperrors.NewConflictError("create identity", "id")
	}
	if field := r.checkUnique(identity); field != "" {
		return apperrors.NewConflictError("create identity", field)
	}
	stored := clone(identity)
	r.byID[identity.ID] = stored
	r.index(stored)
	return nil
}

func (r *IdentityRepository) Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
	}
	next := clone(current)
	patch.Apply(&next)
	next.UpdatedAt = r.now().UTC()

	if field := r.checkUnique(next); field != "" {
		return nil, apperrors.NewConflictError("update identity", field)
	}
	r.unindex(current)
	r.byID[id] = next
	r.index(next)

	result := clone(next)
	return &result, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
	}
	r.unindex(current)
	delete(r.byID, id)
	return nil
}

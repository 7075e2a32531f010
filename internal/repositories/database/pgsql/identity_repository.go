package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	"github.com/SscSPs/storefront_app/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const identityColumns = `id, source, email, username, name, photo, bio, website, password_hash,
	confirmed, permissions, value, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxIdentityRepository struct {
	BaseRepository
	now func() time.Time
}

func newPgxIdentityRepository(db *pgxpool.Pool) *PgxIdentityRepository {
	return &PgxIdentityRepository{BaseRepository: BaseRepository{Pool: db}, now: time.Now}
}

var _ portsrepo.IdentityRepositoryFacade = (*PgxIdentityRepository)(nil)
var _ portsrepo.TransactionManager = (*PgxIdentityRepository)(nil)

func toModelIdentity(d domain.Identity) models.Identity {
	return models.Identity{
		ID:           d.ID,
		Source:       string(d.Source),
		Email:        d.Email,
		Username:     d.Username,
		Name:         d.Name,
		Photo:        d.Photo,
		Bio:          d.Bio,
		Website:      d.Website,
		PasswordHash: d.PasswordHash,
		Confirmed:    d.Confirmed,
		Permissions:  append([]string{}, d.Permissions...),
		Value:        d.Value,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDomainIdentity(m models.Identity, links []models.ProviderLink) domain.Identity {
	d := domain.Identity{
		ID:           m.ID,
		Source:       domain.Source(m.Source),
		Email:        m.Email,
		Username:     m.Username,
		Name:         m.Name,
		Photo:        m.Photo,
		Bio:          m.Bio,
		Website:      m.Website,
		PasswordHash: m.PasswordHash,
		Confirmed:    m.Confirmed,
		Permissions:  append([]domain.Permission{}, m.Permissions...),
		Value:        m.Value,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if len(links) > 0 {
		d.ProviderLinks = make(map[domain.Source]domain.ProviderLink, len(links))
		for _, l := range links {
			d.ProviderLinks[domain.Source(l.Source)] = domain.ProviderLink{
				ExternalID:  l.ExternalID,
				Photo:       l.Photo,
				Username:    l.Username,
				DisplayName: l.DisplayName,
			}
		}
	}
	return d
}

func scanIdentity(row pgx.Row) (models.Identity, error) {
	var m models.Identity
	err := row.Scan(
		&m.ID,
		&m.Source,
		&m.Email,
		&m.Username,
		&m.Name,
		&m.Photo,
		&m.Bio,
		&m.Website,
		&m.PasswordHash,
		&m.Confirmed,
		&m.Permissions,
		&m.Value,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func loadLinks(ctx context.Context, q querier, identityIDs []string) (map[string][]models.ProviderLink, error) {
	result := make(map[string][]models.ProviderLink, len(identityIDs))
	if len(identityIDs) == 0 {
		return result, nil
	}
	rows, err := q.Query(ctx, `
		SELECT identity_id, source, external_id, photo, username, display_name
		FROM identity_provider_links
		WHERE identity_id = ANY($1::uuid[]);
	`, identityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.ProviderLink
		if err := rows.Scan(&l.IdentityID, &l.Source, &l.ExternalID, &l.Photo, &l.Username, &l.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan provider link row: %w", err)
		}
		result[l.IdentityID] = append(result[l.IdentityID], l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating provider link rows: %w", rows.Err())
	}
	return result, nil
}

// findOne runs a query selecting identityColumns and expecting at most one row.
func (r *PgxIdentityRepository) findOne(ctx context.Context, q querier, query string, args ...any) (*domain.Identity, error) {
	m, err := scanIdentity(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	links, err := loadLinks(ctx, q, []string{m.ID})
	if err != nil {
		return nil, err
	}
	identity := toDomainIdentity(m, links[m.ID])
	return &identity, nil
}

func (r *PgxIdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	return r.findOne(ctx, r.Pool, `SELECT `+identityColumns+` FROM identities WHERE id = $1;`, id)
}

func (r *PgxIdentityRepository) FindByProvider(ctx context.Context, source domain.Source, externalID string) (*domain.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE id = (
			SELECT identity_id FROM identity_provider_links WHERE source = $1 AND external_id = $2
		);
	`
	return r.findOne(ctx, r.Pool, query, string(source), externalID)
}

func (r *PgxIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if email == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.findOne(ctx, r.Pool, `SELECT `+identityColumns+` FROM identities WHERE LOWER(email) = LOWER($1) AND email <> '';`, email)
}

func (r *PgxIdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	if username == "" {
		return nil, apperrors.ErrNotFound
	}
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE source = 'email' AND username <> '' AND LOWER(username) = LOWER($1);
	`
	return r.findOne(ctx, r.Pool, query, username)
}

func (r *PgxIdentityRepository) ListByValue(ctx context.Context, limit int) ([]domain.Identity, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		ORDER BY value DESC, created_at ASC
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer rows.Close()

	modelIdentities := []models.Identity{}
	ids := []string{}
	for rows.Next() {
		m, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity row: %w", err)
		}
		modelIdentities = append(modelIdentities, m)
		ids = append(ids, m.ID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating identity rows: %w", rows.Err())
	}

	links, err := loadLinks(ctx, r.Pool, ids)
	if err != nil {
		return nil, err
	}
	identities := make([]domain.Identity, len(modelIdentities))
	for i, m := range modelIdentities {
		identities[i] = toDomainIdentity(m, links[m.ID])
	}
	return identities, nil
}

// Create inserts the identity and its provider links in one transaction.
func (r *PgxIdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	m := toModelIdentity(identity)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO identities (`+identityColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
		`,
			m.ID, m.Source, m.Email, m.Username, m.Name, m.Photo, m.Bio, m.Website,
			m.PasswordHash, m.Confirmed, m.Permissions, m.Value, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return err
		}
		for source, link := range identity.ProviderLinks {
			_, err := tx.Exec(ctx, `
				INSERT INTO identity_provider_links (identity_id, source, external_id, photo, username, display_name)
				VALUES ($1, $2, $3, $4, $5, $6);
			`, m.ID, string(source), link.ExternalID, link.Photo, link.Username, link.DisplayName)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if classified := classifyUniqueViolation("create identity", err); classified != err {
			return classified
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// Update applies patch in a single statement so concurrent value increments never lose writes.
func (r *PgxIdentityRepository) Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
	}
	var permissions *[]string
	if patch.Permissions != nil {
		p := append([]string{}, (*patch.Permissions)...)
		permissions = &p
	}

	var updated *domain.Identity
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE identities SET
				email         = COALESCE($2, email),
				username      = COALESCE($3, username),
				password_hash = COALESCE($4, password_hash),
				confirmed     = COALESCE($5, confirmed),
				permissions   = COALESCE($6, permissions),
				value         = value + COALESCE($7::numeric, 0),
				updated_at    = $8
			WHERE id = $1
			RETURNING ` + identityColumns + `;
		`
		identity, err := r.findOne(ctx, tx, query,
			id, patch.Email, patch.Username, patch.PasswordHash, patch.Confirmed,
			permissions, patch.ValueDelta, r.now().UTC(),
		)
		if err != nil {
			return err
		}
		updated = identity
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
		}
		if classified := classifyUniqueViolation("update identity", err); classified != err {
			return nil, classified
		}
		return nil, fmt.Errorf("failed to update identity: %w", err)
	}
	return updated, nil
}

// Delete removes the identity; provider links cascade.
func (r *PgxIdentityRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
	}
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM identities WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("identity %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

package pgsql

import (
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rateLimitPrefix = "storefront"

// NewRepositoryProvider wires the Postgres repositories. The limiter counters live
// in the same database so every instance enforces a shared window.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IdentityRepo:   newPgxIdentityRepository(dbPool),
		RateLimitStore: newRateLimitStore(dbPool, rateLimitPrefix),
	}
}

package memory

import (
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewRepositoryProvider wires the in-process identity repository and the limiter's
// memory counter store. Counters are not shared between processes.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IdentityRepo:   NewIdentityRepository(),
		RateLimitStore: limitermemory.NewStore(),
	}
}

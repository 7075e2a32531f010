package repositories

import "github.com/ulule/limiter/v3"

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	IdentityRepo IdentityRepositoryFacade
	// RateLimitStore backs the request rate limiter's counters.
	RateLimitStore limiter.Store
}

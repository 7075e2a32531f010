package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/utils"
)

const oauthStateBytes = 16

// oauthService is the OAuth bridge. Strategies are handed in at construction and
// never change afterwards.
type oauthService struct {
	BaseService
	strategies map[domain.Source]portssvc.OAuthStrategy
	identities portssvc.IdentitySvcFacade
	tokens     portssvc.TokenCodec
	metrics    metrics.MetricsCollector
}

// OAuthServiceOption is a function that configures an oauthService
type OAuthServiceOption func(*oauthService)

// WithOAuthCallTimeout bounds the code exchange with the provider.
func WithOAuthCallTimeout(timeout time.Duration) OAuthServiceOption {
	return func(s *oauthService) {
		s.CallTimeout = timeout
	}
}

// WithOAuthMetrics sets the metrics collector.
func WithOAuthMetrics(collector metrics.MetricsCollector) OAuthServiceOption {
	return func(s *oauthService) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// NewOAuthService creates the OAuth bridge for the given strategies.
func NewOAuthService(strategies []portssvc.OAuthStrategy, identities portssvc.IdentitySvcFacade, tokens portssvc.TokenCodec, opts ...OAuthServiceOption) portssvc.OAuthSvcFacade {
	s := &oauthService{
		strategies: make(map[domain.Source]portssvc.OAuthStrategy, len(strategies)),
		identities: identities,
		tokens:     tokens,
		metrics:    metrics.Nop{},
	}
	for _, strategy := range strategies {
		s.strategies[strategy.Source()] = strategy
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *oauthService) Supports(source domain.Source) bool {
	_, ok := s.strategies[source]
	return ok
}

// Begin returns the provider consent URL and a fresh random state.
func (s *oauthService) Begin(ctx context.Context, source domain.Source) (string, string, error) {
	strategy, ok := s.strategies[source]
	if !ok {
		return "", "", apperrors.NewNotFoundError(fmt.Sprintf("OAuth provider %q is not enabled", source))
	}
	state, err := utils.RandomHex(oauthStateBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state string for OAuth: %w", err)
	}
	return strategy.AuthCodeURL(state), state, nil
}

// Complete validates state, exchanges the code and resolves the canonical identity.
func (s *oauthService) Complete(ctx context.Context, source domain.Source, state, expectedState, code string) (*portssvc.OAuthResult, error) {
	strategy, ok := s.strategies[source]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("OAuth provider %q is not enabled", source))
	}
	if !utils.EqualSecrets(state, expectedState) {
		s.metrics.RecordTransition("oauth", "invalid_state")
		return nil, apperrors.ErrInvalidState
	}
	if code == "" {
		return nil, apperrors.NewBadRequestError("Authorization code is required.")
	}

	raw, err := s.exchange(ctx, strategy, code)
	if err != nil {
		s.LogError(ctx, err, "OAuth code exchange failed", slog.String("source", string(source)))
		s.metrics.RecordTransition("oauth", "exchange_failed")
		return nil, err
	}

	identity, err := s.identities.FindOrCreateIdentity(ctx, source, *raw)
	if field, conflict := apperrors.ConflictField(err); conflict && field == "provider" {
		// A concurrent callback created the record between lookup and insert.
		identity, err = s.identities.FindOrCreateIdentity(ctx, source, *raw)
	}
	if err != nil {
		s.metrics.RecordTransition("oauth", "failed")
		return nil, err
	}

	token, err := s.tokens.Issue(domain.PayloadFromIdentity(identity), domain.TokenStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	s.metrics.RecordTransition("oauth", "success")
	s.LogInfo(ctx, "OAuth sign-in completed", slog.String("identity_id", identity.ID), slog.String("source", string(source)))
	return &portssvc.OAuthResult{Identity: identity, Token: token}, nil
}

func (s *oauthService) exchange(ctx context.Context, strategy portssvc.OAuthStrategy, code string) (*domain.RawProfile, error) {
	callCtx, cancel := s.WithCallTimeout(ctx)
	defer cancel()

	start := time.Now()
	raw, err := strategy.Exchange(callCtx, code)
	s.metrics.RecordUpstreamLatency(string(strategy.Source()), time.Since(start))
	if err != nil {
		var upstream *apperrors.UpstreamError
		if errors.As(err, &upstream) {
			return nil, err
		}
		return nil, apperrors.NewUpstreamError(string(strategy.Source()), err)
	}
	return raw, nil
}

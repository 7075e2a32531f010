package services

import (
	portsrepo "github.com/SscSPs/storefront_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/SscSPs/storefront_app/internal/utils"
)

// Collaborators are the external systems the services call out to.
type Collaborators struct {
	Mailer     portssvc.Mailer
	Captcha    portssvc.CaptchaVerifier
	Payments   portssvc.PaymentGateway
	Strategies []portssvc.OAuthStrategy
	Analytics  *utils.PosthogClientWrapper
	Metrics    metrics.MetricsCollector
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, collab Collaborators) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Tokens = NewTokenCodec(cfg)
	container.Identities = NewIdentityService(repos.IdentityRepo)
	container.Captcha = collab.Captcha

	container.Auth = NewAuthService(
		container.Identities,
		container.Tokens,
		collab.Mailer,
		WithAuthAnalytics(collab.Analytics),
		WithAuthMetrics(collab.Metrics),
		WithAuthCallTimeout(cfg.ExternalCallTimeout),
	)

	container.OAuth = NewOAuthService(
		collab.Strategies,
		container.Identities,
		container.Tokens,
		WithOAuthCallTimeout(cfg.ExternalCallTimeout),
		WithOAuthMetrics(collab.Metrics),
	)

	container.Payments = NewPaymentService(
		collab.Payments,
		cfg.PaymentCurrency,
		WithPaymentCallTimeout(cfg.ExternalCallTimeout),
		WithPaymentAnalytics(collab.Analytics),
		WithPaymentMetrics(collab.Metrics),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.TokenCodec        = (*tokenCodec)(nil)
	_ portssvc.IdentitySvcFacade = (*identityService)(nil)
	_ portssvc.AuthSvcFacade     = (*authService)(nil)
	_ portssvc.OAuthSvcFacade    = (*oauthService)(nil)
	_ portssvc.PaymentSvc        = (*paymentService)(nil)
)

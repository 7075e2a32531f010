package mail

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"golang.org/x/time/rate"
)

// ThrottledMailer caps the outbound mail rate process-wide. Resend and reset
// requests are unauthenticated or cheap to repeat, so the relay is protected here.
type ThrottledMailer struct {
	next    portssvc.Mailer
	limiter *rate.Limiter
}

var _ portssvc.Mailer = (*ThrottledMailer)(nil)

// NewThrottledMailer wraps next with a token bucket of perSecond and burst.
func NewThrottledMailer(next portssvc.Mailer, perSecond float64, burst int) *ThrottledMailer {
	if burst < 1 {
		burst = 1
	}
	return &ThrottledMailer{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *ThrottledMailer) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return apperrors.NewUpstreamError(serviceName, err)
	}
	return nil
}

func (t *ThrottledMailer) SendEmailConfirmation(ctx context.Context, email, token string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendEmailConfirmation(ctx, email, token)
}

func (t *ThrottledMailer) SendPasswordChangeEmail(ctx context.Context, email, token string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendPasswordChangeEmail(ctx, email, token)
}

func (t *ThrottledMailer) SendNoUserFoundEmail(ctx context.Context, email string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendNoUserFoundEmail(ctx, email)
}

func (t *ThrottledMailer) SendUseProviderEmail(ctx context.Context, email string, source domain.Source) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendUseProviderEmail(ctx, email, source)
}

package services

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
)

// Mailer dispatches transactional email.
type Mailer interface {
	SendEmailConfirmation(ctx context.Context, email, token string) error
	SendPasswordChangeEmail(ctx context.Context, email, token string) error
	SendNoUserFoundEmail(ctx context.Context, email string) error
	SendUseProviderEmail(ctx context.Context, email string, source domain.Source) error
}

// CaptchaResult is the verification endpoint's verdict.
type CaptchaResult struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// CaptchaVerifier calls the captcha verification endpoint.
// Transport failures are *apperrors.UpstreamError.
type CaptchaVerifier interface {
	Verify(ctx context.Context, responseToken, clientIP string) (*CaptchaResult, error)
}

// PaymentGateway submits charges to the payment processor.
// Declines are *apperrors.PaymentDeclinedError; transport failures *apperrors.UpstreamError.
type PaymentGateway interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error)
}

// PaymentSvc validates and submits charges for authenticated identities.
type PaymentSvc interface {
	Charge(ctx context.Context, claims *domain.TokenPayload, req domain.ChargeRequest) (*domain.Charge, error)
}

package services

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/shopspring/decimal"
)

// TokenCodec signs and verifies compact, expiring identity assertions.
type TokenCodec interface {
	// Issue signs payload with a lifetime chosen by kind.
	// It fails with *apperrors.EncodingError only on malformed input.
	Issue(payload domain.TokenPayload, kind domain.TokenKind) (string, error)
	// Verify checks signature and expiry. Expected failures are *apperrors.VerificationError.
	Verify(token string) (*domain.TokenPayload, error)
}

// LoginResult carries the identity and session token produced by a successful login.
type LoginResult struct {
	Identity *domain.Identity
	Token    string
}

// AuthRegistrationSvc covers signup and email confirmation transitions.
type AuthRegistrationSvc interface {
	// Register creates a pending email identity and sends a confirmation link.
	Register(ctx context.Context, req dto.RegisterRequest) error
	// CompleteProfile attaches an email to an identity and re-enters confirmation.
	CompleteProfile(ctx context.Context, claims *domain.TokenPayload, req dto.CompleteProfileRequest) (string, error)
	// ResendConfirmation issues a fresh temporary token and re-sends the confirmation email.
	ResendConfirmation(ctx context.Context, claims *domain.TokenPayload) (string, error)
	// Confirm moves a pending identity to confirmed and returns a standard token.
	Confirm(ctx context.Context, claims *domain.TokenPayload) (string, error)
}

// AuthSessionSvc covers login and password reset transitions.
type AuthSessionSvc interface {
	// Login authenticates an email identity. Branch failures are *apperrors.AppError
	// (404, 409, 403) or *apperrors.ProviderMismatchError for OAuth-created accounts.
	Login(ctx context.Context, req dto.LoginRequest) (*LoginResult, error)
	// RequestPasswordReset never reports whether the email matched; the outcome is
	// only observable through the mailer.
	RequestPasswordReset(ctx context.Context, email string) error
	// CompletePasswordReset stores a new password for the identity named by the token email.
	CompletePasswordReset(ctx context.Context, claims *domain.TokenPayload, password string) error
}

// AccountSvc covers operations on an authenticated identity.
type AccountSvc interface {
	// Profile reloads the authoritative record referenced by the token.
	Profile(ctx context.Context, claims *domain.TokenPayload) (*domain.Identity, error)
	// AddValue increments the identity's accumulated value.
	AddValue(ctx context.Context, claims *domain.TokenPayload, delta decimal.Decimal) (*domain.Identity, error)
	// ChangeEmail replaces the email, resets confirmation and returns a temporary token.
	ChangeEmail(ctx context.Context, claims *domain.TokenPayload, req dto.ChangeEmailRequest) (string, error)
	// DeleteAccount removes the identity.
	DeleteAccount(ctx context.Context, claims *domain.TokenPayload) error
	// Leaderboard lists identities by value.
	Leaderboard(ctx context.Context, limit int) ([]domain.Identity, error)
}

// AuthSvcFacade combines all reconciliation interfaces.
type AuthSvcFacade interface {
	AuthRegistrationSvc
	AuthSessionSvc
	AccountSvc
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/utils"
	"github.com/shopspring/decimal"
)

// Transition names used for metrics and analytics.
const (
	transitionRegister        = "register"
	transitionCompleteProfile = "complete_profile"
	transitionResend          = "resend_confirmation"
	transitionConfirm         = "confirm"
	transitionLogin           = "login"
	transitionResetRequest    = "reset_request"
	transitionResetComplete   = "reset_complete"
	transitionChangeEmail     = "change_email"
	transitionDelete          = "delete"
)

// authService is the identity reconciliation engine. It drives the
// Unregistered -> PendingConfirmation -> Confirmed state machine and the
// password reset sub-flow.
type authService struct {
	BaseService
	identities portssvc.IdentitySvcFacade
	tokens     portssvc.TokenCodec
	mailer     portssvc.Mailer
	analytics  *utils.PosthogClientWrapper
	metrics    metrics.MetricsCollector
}

// AuthServiceOption is a function that configures an authService
type AuthServiceOption func(*authService)

// WithAuthAnalytics sets the analytics client used for transition events.
func WithAuthAnalytics(client *utils.PosthogClientWrapper) AuthServiceOption {
	return func(s *authService) {
		s.analytics = client
	}
}

// WithAuthMetrics sets the metrics collector.
func WithAuthMetrics(collector metrics.MetricsCollector) AuthServiceOption {
	return func(s *authService) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithAuthCallTimeout bounds every mail dispatch.
func WithAuthCallTimeout(timeout time.Duration) AuthServiceOption {
	return func(s *authService) {
		s.CallTimeout = timeout
	}
}

// NewAuthService creates the reconciliation engine.
func NewAuthService(identities portssvc.IdentitySvcFacade, tokens portssvc.TokenCodec, mailer portssvc.Mailer, opts ...AuthServiceOption) portssvc.AuthSvcFacade {
	s := &authService{
		identities: identities,
		tokens:     tokens,
		mailer:     mailer,
		metrics:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func errNotAuthorized() *apperrors.AppError {
	return apperrors.NewForbiddenError("Not authorized")
}

// Register creates a pending email identity and mails a confirmation link carrying
// a temporary token.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) error {
	_, err := s.identities.FindIdentity(ctx, domain.SourceEmail, domain.Probe{Email: req.Email})
	switch {
	case err == nil:
		s.record(transitionRegister, "conflict")
		return apperrors.NewAppError(http.StatusConflict, "User already exists", apperrors.ErrDuplicate)
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("failed to look up identity: %w", err)
	}

	identity, err := s.identities.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		if _, ok := apperrors.ConflictField(err); ok {
			s.record(transitionRegister, "conflict")
		}
		return err
	}

	token, err := s.tokens.Issue(domain.PayloadFromIdentity(identity), domain.TokenTemporary)
	if err != nil {
		return fmt.Errorf("failed to issue confirmation token: %w", err)
	}
	if err := s.deliver(ctx, func(ctx context.Context) error {
		return s.mailer.SendEmailConfirmation(ctx, identity.Email, token)
	}); err != nil {
		s.LogError(ctx, err, "Failed to send confirmation email", slog.String("identity_id", identity.ID))
		return err
	}

	s.record(transitionRegister, "success")
	s.track(identity.ID, "identity_registered", map[string]any{"source": string(identity.Source)})
	return nil
}

// CompleteProfile attaches the email an OAuth provider withheld and re-enters confirmation.
// Email accounts change their address through ChangeEmail, which asks for the password.
func (s *authService) CompleteProfile(ctx context.Context, claims *domain.TokenPayload, req dto.CompleteProfileRequest) (string, error) {
	if req.Source != "" && req.Source != claims.Source {
		return "", apperrors.NewBadRequestError("Source does not match the current session")
	}
	identity, err := s.reload(ctx, claims)
	if err != nil {
		return "", err
	}
	if identity.Source == domain.SourceEmail {
		s.record(transitionCompleteProfile, "rejected")
		return "", apperrors.NewForbiddenError("Email accounts change their email through /api/me/email")
	}

	email := strings.TrimSpace(req.Email)
	patch := domain.IdentityPatch{
		Email:       &email,
		Confirmed:   new(bool),
		Permissions: ptr(revokeGated(identity.Permissions)),
	}
	if username := strings.TrimSpace(req.Username); username != "" {
		patch.Username = &username
	}
	updated, err := s.identities.UpdateIdentity(ctx, identity.Source, domain.Probe{ID: identity.ID}, patch)
	if err != nil {
		return "", err
	}

	token, err := s.sendConfirmation(ctx, updated)
	if err != nil {
		return "", err
	}
	s.record(transitionCompleteProfile, "success")
	return token, nil
}

// ResendConfirmation re-derives the identity from the token and mails a fresh link.
// It never mutates the identity, so earlier links stay valid until they expire.
func (s *authService) ResendConfirmation(ctx context.Context, claims *domain.TokenPayload) (string, error) {
	if claims.Kind == domain.TokenTemporary && claims.Purpose != domain.PurposeConfirmEmail {
		return "", errNotAuthorized()
	}
	identity, err := s.identities.FindIdentity(ctx, claims.Source, claims.Probe())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NewNotFoundError("No user found")
		}
		return "", fmt.Errorf("failed to look up identity: %w", err)
	}
	token, err := s.sendConfirmation(ctx, identity)
	if err != nil {
		return "", err
	}
	s.record(transitionResend, "success")
	return token, nil
}

// Confirm marks the identity confirmed and grants the baseline permissions.
// Only confirmation tokens minted for the identity's current email may confirm it.
func (s *authService) Confirm(ctx context.Context, claims *domain.TokenPayload) (string, error) {
	if claims.Kind != domain.TokenTemporary || claims.Purpose != domain.PurposeConfirmEmail {
		s.record(transitionConfirm, "rejected")
		return "", errNotAuthorized()
	}
	identity, err := s.reload(ctx, claims)
	if err != nil {
		return "", err
	}
	if claims.Email != "" && !strings.EqualFold(claims.Email, identity.Email) {
		s.LogWarn(ctx, "Confirmation token email does not match identity", slog.String("identity_id", identity.ID))
		s.record(transitionConfirm, "rejected")
		return "", errNotAuthorized()
	}

	confirmed := true
	updated, err := s.identities.UpdateIdentity(ctx, identity.Source, domain.Probe{ID: identity.ID}, domain.IdentityPatch{
		Confirmed:   &confirmed,
		Permissions: ptr(grantBaseline(identity.Permissions)),
	})
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(domain.PayloadFromIdentity(updated), domain.TokenStandard)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	s.record(transitionConfirm, "success")
	s.track(updated.ID, "identity_confirmed", nil)
	return token, nil
}

// Login authenticates with email (or email-account username) and password.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*portssvc.LoginResult, error) {
	identity, err := s.identities.FindByLogin(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.record(transitionLogin, "not_found")
			return nil, apperrors.NewNotFoundError("No user found")
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	if identity.Source != domain.SourceEmail || !identity.HasPassword() {
		s.record(transitionLogin, "wrong_source")
		return nil, &apperrors.ProviderMismatchError{Source: string(identity.Source)}
	}
	if !identity.Confirmed {
		s.record(transitionLogin, "unconfirmed")
		return nil, apperrors.NewAppError(http.StatusConflict, "Email has not been confirmed", apperrors.ErrForbidden)
	}
	if !utils.CheckPasswordHash(req.Password, identity.PasswordHash) {
		s.record(transitionLogin, "bad_credentials")
		s.LogWarn(ctx, "Login rejected", slog.String("identity_id", identity.ID))
		return nil, apperrors.NewForbiddenError("Incorrect credentials")
	}

	token, err := s.tokens.Issue(domain.PayloadFromIdentity(identity), domain.TokenStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	s.record(transitionLogin, "success")
	s.track(identity.ID, "identity_logged_in", nil)
	return &portssvc.LoginResult{Identity: identity, Token: token}, nil
}

// RequestPasswordReset picks the email to send. Callers respond identically in
// every branch so the endpoint cannot be used to enumerate accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	identity, err := s.identities.FindIdentity(ctx, domain.SourceEmail, domain.Probe{Email: email})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to look up identity: %w", err)
	}

	var send func(context.Context) error
	outcome := "reset_link"
	switch {
	case identity == nil || !identity.Confirmed:
		outcome = "no_account"
		send = func(ctx context.Context) error { return s.mailer.SendNoUserFoundEmail(ctx, email) }
	case identity.Source != domain.SourceEmail:
		outcome = "use_provider"
		source := identity.Source
		send = func(ctx context.Context) error { return s.mailer.SendUseProviderEmail(ctx, email, source) }
	default:
		payload := domain.TokenPayload{Email: identity.Email, Source: domain.SourceEmail, Purpose: domain.PurposeResetPassword}
		token, err := s.tokens.Issue(payload, domain.TokenTemporary)
		if err != nil {
			return fmt.Errorf("failed to issue reset token: %w", err)
		}
		send = func(ctx context.Context) error { return s.mailer.SendPasswordChangeEmail(ctx, identity.Email, token) }
	}

	if err := s.deliver(ctx, send); err != nil {
		s.LogError(ctx, err, "Failed to send password reset email")
		return err
	}
	s.record(transitionResetRequest, outcome)
	return nil
}

// CompletePasswordReset resolves the identity by the token's email, not its id, so a
// record deleted or re-pointed since the email was sent is not touched.
func (s *authService) CompletePasswordReset(ctx context.Context, claims *domain.TokenPayload, password string) error {
	if claims.Purpose != domain.PurposeResetPassword {
		s.record(transitionResetComplete, "rejected")
		return errNotAuthorized()
	}
	if claims.Email == "" {
		return apperrors.NewUnauthorizedError("No user found")
	}
	identity, err := s.identities.FindIdentity(ctx, domain.SourceEmail, domain.Probe{Email: claims.Email})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.record(transitionResetComplete, "not_found")
			return apperrors.NewUnauthorizedError("No user found")
		}
		return fmt.Errorf("failed to look up identity: %w", err)
	}
	if identity.Source != domain.SourceEmail {
		s.record(transitionResetComplete, "not_found")
		return apperrors.NewUnauthorizedError("No user found")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.identities.UpdateIdentity(ctx, domain.SourceEmail, domain.Probe{ID: identity.ID}, domain.IdentityPatch{PasswordHash: &hash}); err != nil {
		return err
	}
	s.record(transitionResetComplete, "success")
	s.LogInfo(ctx, "Password reset completed", slog.String("identity_id", identity.ID))
	return nil
}

// Profile reloads the record behind the token; a deleted identity is no longer authorized
// even while its token verifies.
func (s *authService) Profile(ctx context.Context, claims *domain.TokenPayload) (*domain.Identity, error) {
	return s.reload(ctx, claims)
}

func (s *authService) AddValue(ctx context.Context, claims *domain.TokenPayload, delta decimal.Decimal) (*domain.Identity, error) {
	if !delta.IsPositive() {
		return nil, apperrors.NewBadRequestError("toAdd must be a positive number")
	}
	updated, err := s.identities.UpdateIdentity(ctx, claims.Source, claims.Probe(), domain.IdentityPatch{ValueDelta: &delta})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errNotAuthorized()
		}
		return nil, err
	}
	return updated, nil
}

// ChangeEmail replaces the email, drops confirmation and gated permissions, and mails
// a new confirmation link. Email accounts must present their password.
func (s *authService) ChangeEmail(ctx context.Context, claims *domain.TokenPayload, req dto.ChangeEmailRequest) (string, error) {
	identity, err := s.reload(ctx, claims)
	if err != nil {
		return "", err
	}
	if identity.Source == domain.SourceEmail && !utils.CheckPasswordHash(req.Password, identity.PasswordHash) {
		s.record(transitionChangeEmail, "bad_credentials")
		return "", apperrors.NewBadRequestError("Incorrect password")
	}

	email := strings.TrimSpace(req.Email)
	updated, err := s.identities.UpdateIdentity(ctx, identity.Source, domain.Probe{ID: identity.ID}, domain.IdentityPatch{
		Email:       &email,
		Confirmed:   new(bool),
		Permissions: ptr(revokeGated(identity.Permissions)),
	})
	if err != nil {
		return "", err
	}

	token, err := s.sendConfirmation(ctx, updated)
	if err != nil {
		return "", err
	}
	s.record(transitionChangeEmail, "success")
	return token, nil
}

func (s *authService) DeleteAccount(ctx context.Context, claims *domain.TokenPayload) error {
	if err := s.identities.DeleteIdentity(ctx, claims.Source, claims.Probe()); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return errNotAuthorized()
		}
		return err
	}
	s.record(transitionDelete, "success")
	s.track(claims.ID, "identity_deleted", nil)
	return nil
}

func (s *authService) Leaderboard(ctx context.Context, limit int) ([]domain.Identity, error) {
	return s.identities.ListIdentities(ctx, limit)
}

// reload resolves the identity referenced by claims, mapping a miss to NotAuthorized.
func (s *authService) reload(ctx context.Context, claims *domain.TokenPayload) (*domain.Identity, error) {
	identity, err := s.identities.FindIdentity(ctx, claims.Source, claims.Probe())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errNotAuthorized()
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return identity, nil
}

// sendConfirmation issues a temporary token for identity and mails the confirmation link.
func (s *authService) sendConfirmation(ctx context.Context, identity *domain.Identity) (string, error) {
	if identity.Email == "" {
		return "", apperrors.NewBadRequestError("An email address is required")
	}
	payload := domain.PayloadFromIdentity(identity)
	payload.Purpose = domain.PurposeConfirmEmail
	token, err := s.tokens.Issue(payload, domain.TokenTemporary)
	if err != nil {
		return "", fmt.Errorf("failed to issue confirmation token: %w", err)
	}
	if err := s.deliver(ctx, func(ctx context.Context) error {
		return s.mailer.SendEmailConfirmation(ctx, identity.Email, token)
	}); err != nil {
		s.LogError(ctx, err, "Failed to send confirmation email", slog.String("identity_id", identity.ID))
		return "", err
	}
	return token, nil
}

// deliver runs a mail dispatch under the collaborator timeout.
func (s *authService) deliver(ctx context.Context, send func(context.Context) error) error {
	callCtx, cancel := s.WithCallTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := send(callCtx)
	s.metrics.RecordUpstreamLatency("mail", time.Since(start))
	if err == nil {
		return nil
	}
	var upstream *apperrors.UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return apperrors.NewUpstreamError("mail", err)
}

func (s *authService) record(transition, outcome string) {
	s.metrics.RecordTransition(transition, outcome)
}

func (s *authService) track(identityID, event string, props map[string]any) {
	if identityID == "" {
		return
	}
	s.analytics.Enqueue(identityID, event, props)
}

func grantBaseline(existing []domain.Permission) []domain.Permission {
	granted := slices.Clone(existing)
	for _, p := range domain.BaselinePermissions {
		if !slices.Contains(granted, p) {
			granted = append(granted, p)
		}
	}
	return granted
}

// revokeGated drops every capability that requires a confirmed email.
func revokeGated(existing []domain.Permission) []domain.Permission {
	kept := make([]domain.Permission, 0, len(existing))
	for _, p := range existing {
		if !slices.Contains(domain.BaselinePermissions, p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func ptr[T any](v T) *T {
	return &v
}

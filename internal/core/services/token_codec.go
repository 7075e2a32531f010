package services

import (
	"errors"
	"strings"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/SscSPs/storefront_app/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// tokenCodec implements TokenCodec with HS256 JWTs. It is stateless: tokens are
// never persisted and are invalidated only by expiry.
type tokenCodec struct {
	secret       string
	issuer       string
	standardTTL  time.Duration
	temporaryTTL time.Duration
	now          func() time.Time
}

// TokenCodecOption customizes the codec.
type TokenCodecOption func(*tokenCodec)

// WithClock injects the clock used for issuing and verifying (useful for tests).
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *tokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec creates a codec from the token settings in cfg.
func NewTokenCodec(cfg *config.Config, opts ...TokenCodecOption) portssvc.TokenCodec {
	c := &tokenCodec{
		secret:       cfg.JWTSecret,
		issuer:       cfg.JWTIssuer,
		standardTTL:  cfg.TokenExpiryDuration,
		temporaryTTL: cfg.TempTokenExpiryDuration,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs payload. The lifetime is the temporary window for TokenTemporary and
// the standard window otherwise.
func (c *tokenCodec) Issue(payload domain.TokenPayload, kind domain.TokenKind) (string, error) {
	if !kind.IsValid() {
		return "", &apperrors.EncodingError{Msg: "unknown token kind " + string(kind)}
	}
	if payload.ID == "" && payload.Email == "" {
		return "", &apperrors.EncodingError{Msg: "payload carries neither id nor email"}
	}
	if payload.Source != "" && !payload.Source.IsValid() {
		return "", &apperrors.EncodingError{Msg: "unknown source " + string(payload.Source)}
	}

	claims := utils.SessionClaims{
		Kind:        string(kind),
		Email:       payload.Email,
		Username:    payload.Username,
		Source:      string(payload.Source),
		ExternalID:  payload.ExternalID,
		Permissions: payload.Permissions,
		Confirmed:   payload.Confirmed,
	}
	ttl := c.standardTTL
	if kind == domain.TokenTemporary {
		ttl = c.temporaryTTL
		claims.Purpose = string(payload.Purpose)
	}
	signed, err := utils.GenerateJWT(claims, payload.ID, c.secret, c.now(), ttl, c.issuer)
	if err != nil {
		return "", &apperrors.EncodingError{Msg: "failed to sign token", Err: err}
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded payload.
func (c *tokenCodec) Verify(token string) (*domain.TokenPayload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &apperrors.VerificationError{Reason: apperrors.ReasonMissingToken}
	}

	claims, err := utils.ParseAndValidateJWT(token, c.secret, c.now)
	if err != nil {
		return nil, &apperrors.VerificationError{Reason: classifyJWTError(err), Err: err}
	}

	kind := domain.TokenKind(claims.Kind)
	if !kind.IsValid() {
		return nil, &apperrors.VerificationError{Reason: apperrors.ReasonMalformed, Err: errors.New("unknown token kind")}
	}

	return &domain.TokenPayload{
		ID:          claims.Subject,
		Source:      domain.Source(claims.Source),
		Email:       claims.Email,
		Username:    claims.Username,
		ExternalID:  claims.ExternalID,
		Permissions: claims.Permissions,
		Confirmed:   claims.Confirmed,
		Kind:        kind,
		Purpose:     domain.TokenPurpose(claims.Purpose),
	}, nil
}

func classifyJWTError(err error) apperrors.VerificationReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.ReasonSignatureInvalid
	default:
		// ErrTokenMalformed, ErrTokenNotValidYet, missing exp and other claim failures.
		return apperrors.ReasonMalformed
	}
}

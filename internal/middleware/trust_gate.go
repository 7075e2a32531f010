package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Rejection codes reported in the response body.
const (
	CodeUnrecognizedOrigin  = "UnrecognizedOrigin"
	CodeUnrecognizedReferer = "UnrecognizedReferer"
	CodeNoTokenPresent      = "NoTokenPresent"
	CodeSessionExpired      = "SessionExpired"
	CodeMalformedToken      = "MalformedToken"
	CodeNotAuthorized       = "NotAuthorized"
	CodeTooManyRequests     = "TooManyRequests"
	// CodeTokenVerification is the opaque code of unexpected verification failures.
	CodeTokenVerification = "4000"
)

const msgSessionExpired = "Your session has expired"

// GuardOptions selects the stages a route runs. The stages that do run keep the
// fixed order origin, referer, token, verification, capability, rate limit.
type GuardOptions struct {
	// Public skips token extraction, verification and the capability check.
	Public bool
	// Navigation skips the origin and referer checks for top-level browser
	// navigations arriving from email links or OAuth providers.
	Navigation bool
	// Kinds are the accepted token kinds. Empty means standard only.
	Kinds []domain.TokenKind
	// Permissions must all be granted to the verified identity.
	Permissions []domain.Permission
}

// TrustGate is the per-request pipeline deciding whether a request is trusted.
type TrustGate struct {
	clientOrigin string
	production   bool
	codec        portssvc.TokenCodec
	limiter      *limiter.Limiter
	cookie       SessionCookie
	metrics      metrics.MetricsCollector
}

// NewTrustGate creates a gate. collector may be nil.
func NewTrustGate(cfg *config.Config, codec portssvc.TokenCodec, rateLimiter *limiter.Limiter, collector metrics.MetricsCollector) *TrustGate {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &TrustGate{
		clientOrigin: strings.TrimRight(cfg.ClientURL, "/"),
		production:   cfg.IsProduction,
		codec:        codec,
		limiter:      rateLimiter,
		cookie:       NewSessionCookie(cfg),
		metrics:      collector,
	}
}

// Guard returns the ordered handler chain for a route.
func (g *TrustGate) Guard(opts GuardOptions) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, 5)
	if !opts.Navigation {
		chain = append(chain, g.CheckOrigin(), g.CheckReferer())
	}
	if !opts.Public {
		kinds := opts.Kinds
		if len(kinds) == 0 {
			kinds = []domain.TokenKind{domain.TokenStandard}
		}
		chain = append(chain, g.Authenticate(kinds))
		if len(opts.Permissions) > 0 {
			chain = append(chain, g.RequirePermissions(opts.Permissions...))
		}
	}
	if g.limiter != nil {
		chain = append(chain, RateLimit(g.limiter, g.metrics))
	}
	return chain
}

// CheckOrigin requires Origin to equal the client origin in production.
func (g *TrustGate) CheckOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.production {
			c.Next()
			return
		}
		if strings.TrimRight(c.GetHeader("Origin"), "/") != g.clientOrigin {
			g.reject(c, http.StatusForbidden, "You are not authorized", CodeUnrecognizedOrigin)
			return
		}
		c.Next()
	}
}

// CheckReferer requires any Origin or Referer header present to contain the client origin.
func (g *TrustGate) CheckReferer() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if (origin != "" && !strings.Contains(origin, g.clientOrigin)) ||
			(referer != "" && !strings.Contains(referer, g.clientOrigin)) {
			g.reject(c, http.StatusForbidden, "Unrecognized referer or origin", CodeUnrecognizedReferer)
			return
		}
		c.Next()
	}
}

// Authenticate extracts and verifies the token and attaches the payload to the request.
func (g *TrustGate) Authenticate(kinds []domain.TokenKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromContext(c)
		token, fromCookie := g.extractToken(c)

		payload, err := g.codec.Verify(token)
		if err != nil {
			reason, expected := apperrors.VerificationReasonOf(err)
			switch {
			case expected && reason == apperrors.ReasonExpired:
				g.reject(c, http.StatusForbidden, msgSessionExpired, CodeSessionExpired)
			case expected && reason == apperrors.ReasonMissingToken:
				g.reject(c, http.StatusForbidden, msgSessionExpired, CodeNoTokenPresent)
			case expected && (reason == apperrors.ReasonMalformed || reason == apperrors.ReasonSignatureInvalid):
				g.reject(c, http.StatusForbidden, msgSessionExpired, CodeMalformedToken)
			default:
				logger.Error("Token verification failed", slog.String("error", err.Error()), slog.String("code", CodeTokenVerification))
				g.metrics.RecordGateRejection(CodeTokenVerification)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Response{Msg: "Internal server error", Code: CodeTokenVerification})
			}
			return
		}

		if !slices.Contains(kinds, payload.Kind) {
			logger.Info("Token kind not accepted on route", slog.String("kind", string(payload.Kind)))
			g.reject(c, http.StatusForbidden, "You are not authorized", CodeNotAuthorized)
			return
		}

		if fromCookie {
			g.cookie.Set(c, token, true)
		}

		c.Set(string(userInfoKey), payload)
		c.Set(string(tokenKey), token)
		if payload.ID != "" {
			withLogger(c, logger.With(slog.String("user_id", payload.ID)))
		}
		c.Next()
	}
}

// RequirePermissions requires every permission to be granted; partial matches fail.
func (g *TrustGate) RequirePermissions(permissions ...domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := GetUserInfoFromContext(c)
		if !ok || !domain.HasAllPermissions(payload.Permissions, permissions) {
			g.reject(c, http.StatusForbidden, "You are not authorized", CodeNotAuthorized)
			return
		}
		c.Next()
	}
}

// extractToken reads the token from the path, the query, the session cookie and
// the bearer header, in that order.
func (g *TrustGate) extractToken(c *gin.Context) (string, bool) {
	if token := c.Param("token"); token != "" {
		return token, false
	}
	if token := c.Query("token"); token != "" {
		return token, false
	}
	if token := g.cookie.Read(c); token != "" {
		return token, true
	}
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1], false
		}
	}
	return "", false
}

func (g *TrustGate) reject(c *gin.Context, status int, msg, code string) {
	GetLoggerFromContext(c).Info("Request rejected by trust gate", slog.String("code", code), slog.Int("status", status))
	g.metrics.RecordGateRejection(code)
	c.AbortWithStatusJSON(status, dto.Response{Msg: msg, Code: code})
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie = "sf_oauth_state"
	// consent screens rarely take longer than a few minutes
	oauthStateMaxAge = 600
)

// OAuthHandler drives the browser through a provider handshake. The browser is the
// active party, so every outcome is a redirect rather than a JSON body.
type OAuthHandler struct {
	oauth      portssvc.OAuthSvcFacade
	cookie     middleware.SessionCookie
	clientURL  string
	production bool
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(oauth portssvc.OAuthSvcFacade, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{
		oauth:      oauth,
		cookie:     middleware.NewSessionCookie(cfg),
		clientURL:  cfg.ClientURL,
		production: cfg.IsProduction,
	}
}

// Begin godoc
// @Summary Start an OAuth handshake
// @Description Redirects to the provider consent screen.
// @Tags oauth
// @Param source path string true "facebook, instagram or google"
// @Success 302
// @Router /api/auth/{source} [get]
func (h *OAuthHandler) Begin(source domain.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromContext(c)
		redirectURL, state, err := h.oauth.Begin(c.Request.Context(), source)
		if err != nil {
			logger.Warn("Failed to start OAuth handshake", slog.String("source", string(source)), slog.String("error", err.Error()))
			h.fail(c)
			return
		}
		h.setState(c, state, oauthStateMaxAge)
		c.Redirect(http.StatusFound, redirectURL)
	}
}

// Callback godoc
// @Summary Finish an OAuth handshake
// @Description Validates state, exchanges the code, sets the session cookie and redirects to the client.
// @Tags oauth
// @Param source path string true "facebook, instagram or google"
// @Param state query string true "Handshake state"
// @Param code query string true "Authorization code"
// @Success 302
// @Router /api/auth/{source}/callback [get]
func (h *OAuthHandler) Callback(source domain.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromContext(c).With(slog.String("source", string(source)))
		expectedState, _ := c.Cookie(oauthStateCookie)
		h.setState(c, "", -1)

		if providerErr := c.Query("error"); providerErr != "" {
			logger.Info("Provider refused the handshake", slog.String("provider_error", providerErr))
			h.fail(c)
			return
		}

		result, err := h.oauth.Complete(c.Request.Context(), source, c.Query("state"), expectedState, c.Query("code"))
		if err != nil {
			logger.Warn("OAuth handshake failed", slog.String("error", err.Error()), slog.String("code", codeRegister))
			h.fail(c)
			return
		}

		h.cookie.Set(c, result.Token, true)
		if result.Identity.Email == "" {
			c.Redirect(http.StatusFound, h.clientURL+"/c/complete-profile")
			return
		}
		c.Redirect(http.StatusFound, h.clientURL+"/u/profile")
	}
}

func (h *OAuthHandler) fail(c *gin.Context) {
	c.Redirect(http.StatusFound, h.clientURL+"/c")
}

func (h *OAuthHandler) setState(c *gin.Context, state string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

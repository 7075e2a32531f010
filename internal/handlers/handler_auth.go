package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves the email registration, login, confirmation and reset flows.
type AuthHandler struct {
	auth      portssvc.AuthSvcFacade
	cookie    middleware.SessionCookie
	clientURL string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth portssvc.AuthSvcFacade, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		cookie:    middleware.NewSessionCookie(cfg),
		clientURL: cfg.ClientURL,
	}
}

// requireClaims returns the payload attached by the trust gate.
func requireClaims(c *gin.Context) (*domain.TokenPayload, bool) {
	claims, ok := middleware.GetUserInfoFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{Msg: "You are not authorized", Code: middleware.CodeNotAuthorized})
		return nil, false
	}
	return claims, true
}

// Check godoc
// @Summary Check session
// @Description Succeeds when the request carries a valid standard token.
// @Tags auth
// @Produce plain
// @Success 200 {string} string "OK"
// @Failure 403 {object} dto.Response
// @Router /api/auth/ [get]
func (h *AuthHandler) Check(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Register godoc
// @Summary Register with email
// @Description Creates a pending identity and sends a confirmation email.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration form"
// @Success 200 {object} dto.Response
// @Failure 403 {object} dto.Response "Captcha rejected"
// @Failure 409 {object} dto.Response "User already exists"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.Register(c.Request.Context(), req); err != nil {
		respondError(c, err, codeRegister)
		return
	}
	respondOK(c, "email confirmation sent", nil)
}

// Login godoc
// @Summary Login with email or username
// @Description Authenticates an email identity, sets the session cookie and returns the token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.Response{data=dto.LoginResponse}
// @Failure 300 {object} dto.Response{data=dto.SourceResponse} "Account uses an OAuth provider"
// @Failure 403 {object} dto.Response "Incorrect credentials"
// @Failure 404 {object} dto.Response "No user found"
// @Failure 409 {object} dto.Response "Email has not been confirmed"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, codeLogin)
		return
	}
	h.cookie.Set(c, result.Token, true)
	respondOK(c, "logged in", dto.LoginResponse{User: dto.ToIdentityResponse(result.Identity), Token: result.Token})
}

// CompleteProfile godoc
// @Summary Supply a missing email
// @Description Attaches an email to an OAuth identity and sends a confirmation email.
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body dto.CompleteProfileRequest true "Profile"
// @Success 200 {object} dto.Response
// @Failure 409 {object} dto.Response "email already exists."
// @Security BearerAuth
// @Router /api/auth/complete-profile [post]
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CompleteProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.auth.CompleteProfile(c.Request.Context(), claims, req); err != nil {
		respondError(c, err, codeCompleteEmail)
		return
	}
	respondOK(c, "email confirmation sent", nil)
}

// Logout godoc
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Response
// @Router /api/auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookie.Clear(c)
	respondOK(c, "Successfully logged out", nil)
}

// ResendConfirmation godoc
// @Summary Resend the confirmation email
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response "No user found"
// @Security BearerAuth
// @Router /api/auth/email-confirmation [post]
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if _, err := h.auth.ResendConfirmation(c.Request.Context(), claims); err != nil {
		respondError(c, err, codeCompleteEmail)
		return
	}
	respondOK(c, "email confirmation sent", nil)
}

// Confirm godoc
// @Summary Confirm email
// @Description Target of the confirmation link. Confirms the identity, sets a session cookie and redirects to the profile.
// @Tags auth
// @Param token path string true "Temporary token"
// @Success 302
// @Failure 403 {object} dto.Response
// @Router /api/auth/email-confirmation/{token} [get]
func (h *AuthHandler) Confirm(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	token, err := h.auth.Confirm(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err, codeConfirm)
		return
	}
	h.cookie.Set(c, token, false)
	c.Redirect(http.StatusFound, h.clientURL+"/u/profile")
}

// RequestPasswordReset godoc
// @Summary Request a password reset
// @Description Always answers 200. Which email is sent depends on the account and is never reported.
// @Tags auth
// @Accept json
// @Produce json
// @Param reset body dto.ResetPasswordRequest true "Email"
// @Success 200 {object} dto.Response
// @Router /api/auth/reset-password [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		// the response must not differ between accounts, even on failure
		middleware.GetLoggerFromContext(c).Error("Password reset request failed",
			slog.String("error", err.Error()), slog.String("code", codeResetRequest))
	}
	respondOK(c, "Email sent", nil)
}

// OpenPasswordReset godoc
// @Summary Open the reset form
// @Description Target of the reset link. Stores the token in the session cookie and redirects to the reset form.
// @Tags auth
// @Param token path string true "Temporary token"
// @Success 302
// @Failure 403 {object} dto.Response
// @Router /api/auth/reset-password/{token} [get]
func (h *AuthHandler) OpenPasswordReset(c *gin.Context) {
	token, ok := middleware.GetTokenFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{Msg: "You are not authorized", Code: middleware.CodeNotAuthorized})
		return
	}
	h.cookie.Set(c, token, false)
	c.Redirect(http.StatusFound, h.clientURL+"/c/reset-password?token="+url.QueryEscape(token))
}

// CompletePasswordReset godoc
// @Summary Set a new password
// @Description Requires the temporary reset token. Clears the session cookie so the user logs in again.
// @Tags auth
// @Accept json
// @Produce json
// @Param password body dto.UpdatePasswordRequest true "New password"
// @Success 200 {object} dto.Response
// @Failure 401 {object} dto.Response "No user found"
// @Failure 403 {object} dto.Response "Your session has expired"
// @Router /api/auth/reset-password [put]
func (h *AuthHandler) CompletePasswordReset(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.CompletePasswordReset(c.Request.Context(), claims, req.Password); err != nil {
		respondError(c, err, codeResetComplete)
		return
	}
	h.cookie.Clear(c)
	respondOK(c, "Password reset", nil)
}

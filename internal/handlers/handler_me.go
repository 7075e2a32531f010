package handlers

import (
	"strconv"

	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// MeHandler serves operations on the authenticated identity.
type MeHandler struct {
	auth   portssvc.AuthSvcFacade
	cookie middleware.SessionCookie
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(auth portssvc.AuthSvcFacade, cfg *config.Config) *MeHandler {
	return &MeHandler{auth: auth, cookie: middleware.NewSessionCookie(cfg)}
}

// GetProfile godoc
// @Summary Get profile
// @Description Reloads the identity referenced by the token.
// @Tags me
// @Produce json
// @Success 200 {object} dto.Response{data=dto.IdentityResponse}
// @Failure 403 {object} dto.Response
// @Security BearerAuth
// @Router /api/me [get]
func (h *MeHandler) GetProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	identity, err := h.auth.Profile(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err, codeProfile)
		return
	}
	respondOK(c, "User Found", dto.ToIdentityResponse(identity))
}

// AddValue godoc
// @Summary Add to value
// @Tags me
// @Accept json
// @Produce json
// @Param value body dto.AddValueRequest true "Amount to add"
// @Success 200 {object} dto.Response{data=dto.ValueResponse}
// @Failure 400 {object} dto.Response
// @Failure 403 {object} dto.Response
// @Security BearerAuth
// @Router /api/me [post]
func (h *MeHandler) AddValue(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AddValueRequest
	if !bindJSON(c, &req) {
		return
	}
	identity, err := h.auth.AddValue(c.Request.Context(), claims, req.ToAdd)
	if err != nil {
		respondError(c, err, codeProfile)
		return
	}
	respondOK(c, "Value updated.", dto.ValueResponse{Value: identity.Value})
}

// DeleteAccount godoc
// @Summary Delete account
// @Tags me
// @Produce json
// @Success 200 {object} dto.Response
// @Failure 403 {object} dto.Response
// @Security BearerAuth
// @Router /api/me [delete]
func (h *MeHandler) DeleteAccount(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.auth.DeleteAccount(c.Request.Context(), claims); err != nil {
		respondError(c, err, codeDelete)
		return
	}
	h.cookie.Clear(c)
	respondOK(c, "user deleted", nil)
}

// ChangeEmail godoc
// @Summary Change email
// @Description Replaces the email, resets confirmation and sends a confirmation email.
// @Tags me
// @Accept json
// @Produce json
// @Param email body dto.ChangeEmailRequest true "New email"
// @Success 200 {object} dto.Response
// @Failure 400 {object} dto.Response "Incorrect password"
// @Failure 409 {object} dto.Response "email already exists."
// @Security BearerAuth
// @Router /api/me/email [post]
func (h *MeHandler) ChangeEmail(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ChangeEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.auth.ChangeEmail(c.Request.Context(), claims, req); err != nil {
		respondError(c, err, codeCompleteEmail)
		return
	}
	respondOK(c, "email confirmation sent", nil)
}

// Leaderboard godoc
// @Summary Leaderboard
// @Description Identities ordered by value, highest first.
// @Tags me
// @Produce json
// @Param limit query int false "Max rows (default 10, max 100)"
// @Success 200 {object} dto.Response{data=[]dto.LeaderboardEntry}
// @Security BearerAuth
// @Router /api/leaderboard [get]
func (h *MeHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	identities, err := h.auth.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, codeProfile)
		return
	}
	respondOK(c, "Leaderboard", dto.ToLeaderboard(identities))
}

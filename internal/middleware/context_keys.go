package middleware

import (
	"github.com/SscSPs/storefront_app/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const (
	// userInfoKey holds the verified *domain.TokenPayload.
	userInfoKey = contextKey("userInfo")
	// tokenKey holds the raw token the payload was verified from.
	tokenKey = contextKey("token")
)

// GetUserInfoFromContext returns the payload attached by the trust gate.
func GetUserInfoFromContext(c *gin.Context) (*domain.TokenPayload, bool) {
	val, exists := c.Get(string(userInfoKey))
	if !exists {
		return nil, false
	}
	payload, ok := val.(*domain.TokenPayload)
	return payload, ok && payload != nil
}

// GetTokenFromContext returns the raw verified token.
func GetTokenFromContext(c *gin.Context) (string, bool) {
	token := c.GetString(string(tokenKey))
	return token, token != ""
}

// GetUserIDFromContext retrieves the authenticated identity ID from the Gin context.
// It returns the ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	payload, ok := GetUserInfoFromContext(c)
	if !ok || payload.ID == "" {
		return "", false
	}
	return payload.ID, true
}

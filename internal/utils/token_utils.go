package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the JWT claims of a session token.
type SessionClaims struct {
	Kind        string   `json:"kind"`
	Email       string   `json:"email,omitempty"`
	Username    string   `json:"username,omitempty"`
	Source      string   `json:"source,omitempty"`
	ExternalID  string   `json:"externalId,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Confirmed   bool     `json:"confirmed"`
	Purpose     string   `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs claims with HS256, stamping issuer, subject and the validity window.
func GenerateJWT(claims SessionClaims, subject string, secret string, now time.Time, expiryDuration time.Duration, issuer string) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateJWT parses a token string, validates its signature and standard claims
// against the supplied clock. Errors are the jwt package's sentinel-wrapped errors.
func ParseAndValidateJWT(tokenString string, secretKey string, now func() time.Time) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Don't forget to validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	}, jwt.WithTimeFunc(now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	return claims, nil
}

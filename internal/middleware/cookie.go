package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// SessionCookie transports session tokens. It is httpOnly everywhere and secure
// only in production.
type SessionCookie struct {
	Name   string
	Secure bool
}

// NewSessionCookie builds the cookie settings from configuration.
func NewSessionCookie(cfg *config.Config) SessionCookie {
	return SessionCookie{Name: cfg.CookieName, Secure: cfg.IsProduction}
}

// Set writes token into the session cookie. With overwrite, any Set-Cookie for the
// same name already queued on this response is dropped first.
func (s SessionCookie) Set(c *gin.Context, token string, overwrite bool) {
	if overwrite {
		s.dropQueued(c)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (s SessionCookie) Clear(c *gin.Context) {
	s.dropQueued(c)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session cookie value from the request.
func (s SessionCookie) Read(c *gin.Context) string {
	value, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return value
}

func (s SessionCookie) dropQueued(c *gin.Context) {
	header := c.Writer.Header()
	queued := header.Values("Set-Cookie")
	if len(queued) == 0 {
		return
	}
	prefix := s.Name + "="
	kept := make([]string, 0, len(queued))
	for _, v := range queued {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}
}

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	result *portssvc.CaptchaResult
	err    error
	token  string
}

func (v *stubVerifier) Verify(_ context.Context, responseToken, _ string) (*portssvc.CaptchaResult, error) {
	v.token = responseToken
	return v.result, v.err
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func captchaRouter(v portssvc.CaptchaVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/form", middleware.RequireCaptcha(v, 0.5, nil), func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		// the body was already read by the guard and must still bind
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, dto.Response{Msg: body.Email})
	})
	return r
}

func postForm(r *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRequireCaptcha(t *testing.T) {
	t.Run("passing score reaches the handler", func(t *testing.T) {
		v := &stubVerifier{result: &portssvc.CaptchaResult{Success: true, Score: 0.9}}
		w, resp := postForm(captchaRouter(v), `{"email":"ada@example.com","recaptcha":"r-token"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ada@example.com", resp.Msg)
		assert.Equal(t, "r-token", v.token)
	})

	t.Run("missing token", func(t *testing.T) {
		w, resp := postForm(captchaRouter(&stubVerifier{}), `{"email":"ada@example.com"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, middleware.CodeCaptchaMissing, resp.Code)
	})

	t.Run("low score is a business rejection", func(t *testing.T) {
		v := &stubVerifier{result: &portssvc.CaptchaResult{Success: true, Score: 0.1}}
		w, resp := postForm(captchaRouter(v), `{"recaptcha":"r"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, middleware.CodeInvalidCaptcha, resp.Code)
		assert.Equal(t, "Invalid recaptcha", resp.Msg)
	})

	t.Run("failed verdict is a business rejection", func(t *testing.T) {
		v := &stubVerifier{result: &portssvc.CaptchaResult{Success: false, Score: 0.9}}
		w, resp := postForm(captchaRouter(v), `{"recaptcha":"r"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, middleware.CodeInvalidCaptcha, resp.Code)
	})

	t.Run("unreachable service is distinguishable", func(t *testing.T) {
		v := &stubVerifier{err: apperrors.NewUpstreamError("captcha", errors.New("connection refused"))}
		w, resp := postForm(captchaRouter(v), `{"recaptcha":"r"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, middleware.CodeCaptchaUnavailable, resp.Code)
		assert.Equal(t, "Invalid captcha. No captcha info present.", resp.Msg)
	})

	t.Run("timeout is an internal failure", func(t *testing.T) {
		v := &stubVerifier{err: apperrors.NewUpstreamError("captcha", timeoutErr{})}
		w, resp := postForm(captchaRouter(v), `{"recaptcha":"r"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, middleware.CodeCaptchaTimeout, resp.Code)
	})
}

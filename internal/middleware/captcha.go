package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Captcha rejection codes.
const (
	CodeInvalidCaptcha     = "InvalidCaptcha"
	CodeCaptchaMissing     = "CaptchaMissing"
	CodeCaptchaUnavailable = "CaptchaUnavailable"
	// CodeCaptchaTimeout is the opaque code of a verification call that ran out of time.
	CodeCaptchaTimeout = "4001"
)

// RequireCaptcha verifies the "recaptcha" field of the JSON body. The body is cached
// by ShouldBindBodyWith, so handlers behind this guard must bind with it too.
//
// A low score or a failed verdict is a 403 business rejection. An unreachable
// verification service is a 403 with a different message so outages can be told
// apart from abuse. A timeout is an internal failure.
func RequireCaptcha(verifier portssvc.CaptchaVerifier, threshold float64, collector metrics.MetricsCollector) gin.HandlerFunc {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return func(c *gin.Context) {
		logger := GetLoggerFromContext(c)

		var fields dto.CaptchaFields
		_ = c.ShouldBindBodyWith(&fields, binding.JSON)
		if strings.TrimSpace(fields.Recaptcha) == "" {
			collector.RecordGateRejection(CodeCaptchaMissing)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{Msg: "Invalid captcha. No captcha token present.", Code: CodeCaptchaMissing})
			return
		}

		result, err := verifier.Verify(c.Request.Context(), fields.Recaptcha, c.ClientIP())
		if err != nil {
			captchaErr := &apperrors.CaptchaError{Reason: apperrors.CaptchaUnavailable, Err: err}
			var upstream *apperrors.UpstreamError
			if errors.As(err, &upstream) && upstream.Timeout() {
				logger.Error("Captcha verification timed out", slog.String("error", captchaErr.Error()), slog.String("code", CodeCaptchaTimeout))
				collector.RecordGateRejection(CodeCaptchaTimeout)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Response{Msg: "Internal server error", Code: CodeCaptchaTimeout})
				return
			}
			logger.Warn("Captcha verification unavailable", slog.String("error", captchaErr.Error()))
			collector.RecordGateRejection(CodeCaptchaUnavailable)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{Msg: "Invalid captcha. No captcha info present.", Code: CodeCaptchaUnavailable})
			return
		}

		if !result.Success || result.Score < threshold {
			captchaErr := &apperrors.CaptchaError{Reason: apperrors.CaptchaRejected, Success: result.Success, Score: result.Score}
			logger.Info("Captcha rejected", slog.String("reason", captchaErr.Error()))
			collector.RecordGateRejection(CodeInvalidCaptcha)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{
				Msg:  "Invalid recaptcha",
				Code: CodeInvalidCaptcha,
				Data: gin.H{"recaptcha": result},
			})
			return
		}

		c.Next()
	}
}

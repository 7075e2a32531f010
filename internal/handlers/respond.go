package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Opaque codes reported with internal failures. Operators find the cause in the logs.
const (
	codeProfile        = "1001"
	codeRegister       = "1003"
	codeLogin          = "1004"
	codeCompleteEmail  = "1005"
	codeConfirm        = "1006"
	codeResetRequest   = "1007"
	codeResetComplete  = "1008"
	codeDelete         = "1009"
	codePayment        = "1010"
	msgInternalFailure = "Internal server error"
)

func respondOK(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, dto.Response{Msg: msg, Data: data})
}

// bindJSON binds the body through the cached copy so it can follow the captcha guard.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		middleware.GetLoggerFromContext(c).Info("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.Response{Msg: "Invalid request body", Code: "InvalidRequest"})
		return false
	}
	return true
}

// respondError converts a lower-layer failure into exactly one response. Expected
// rejections keep their status and message; anything else is an internal failure
// reported with an opaque code.
func respondError(c *gin.Context, err error, opaqueCode string) {
	logger := middleware.GetLoggerFromContext(c)

	var appErr *apperrors.AppError
	var conflict *apperrors.ConflictError
	var mismatch *apperrors.ProviderMismatchError
	var declined *apperrors.PaymentDeclinedError

	switch {
	case errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError:
		logger.Info("Request rejected", slog.Int("status", appErr.Code), slog.String("reason", appErr.Message))
		c.JSON(appErr.Code, dto.Response{Msg: appErr.Message})
	case errors.As(err, &conflict):
		field := conflict.Field
		if field == "" || field == "unique" || field == "id" {
			field = "account"
		}
		logger.Info("Uniqueness conflict", slog.String("field", field))
		c.JSON(http.StatusConflict, dto.Response{Msg: field + " already exists."})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusMultipleChoices, dto.Response{
			Msg:  "User signed using " + mismatch.Source,
			Data: dto.SourceResponse{Source: mismatch.Source},
		})
	case errors.As(err, &declined):
		c.JSON(http.StatusBadRequest, dto.Response{
			Msg:  "Error charging card",
			Code: "PaymentDeclined",
			Data: gin.H{"code": declined.Code, "message": declined.Message},
		})
	default:
		logger.Error("Request failed", slog.String("error", err.Error()), slog.String("code", opaqueCode))
		c.JSON(http.StatusInternalServerError, dto.Response{Msg: msgInternalFailure, Code: opaqueCode})
	}
}

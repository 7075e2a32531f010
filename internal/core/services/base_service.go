package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/storefront_app/internal/middleware"
)

// defaultExternalCallTimeout bounds collaborator calls when no timeout is configured.
const defaultExternalCallTimeout = 10 * time.Second

// BaseService provides common functionality for all services
type BaseService struct {
	// CallTimeout bounds every call to an external collaborator.
	CallTimeout time.Duration
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogWarn logs a business rejection. Rejections are never operator-facing errors.
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Warn(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// WithCallTimeout derives a context bounded by the collaborator timeout.
func (s *BaseService) WithCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.CallTimeout
	if timeout <= 0 {
		timeout = defaultExternalCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/utils"
)

const defaultChargeDescription = "Leaderboard"

type paymentService struct {
	BaseService
	gateway   portssvc.PaymentGateway
	currency  string
	analytics *utils.PosthogClientWrapper
	metrics   metrics.MetricsCollector
}

// PaymentServiceOption is a function that configures a paymentService
type PaymentServiceOption func(*paymentService)

func WithPaymentCallTimeout(timeout time.Duration) PaymentServiceOption {
	return func(s *paymentService) {
		s.CallTimeout = timeout
	}
}

func WithPaymentAnalytics(client *utils.PosthogClientWrapper) PaymentServiceOption {
	return func(s *paymentService) {
		s.analytics = client
	}
}

func WithPaymentMetrics(collector metrics.MetricsCollector) PaymentServiceOption {
	return func(s *paymentService) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// NewPaymentService creates a payment service charging in currency.
func NewPaymentService(gateway portssvc.PaymentGateway, currency string, opts ...PaymentServiceOption) portssvc.PaymentSvc {
	s := &paymentService{
		gateway:  gateway,
		currency: strings.ToLower(currency),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Charge submits the charge and trusts the processor's result.
func (s *paymentService) Charge(ctx context.Context, claims *domain.TokenPayload, req domain.ChargeRequest) (*domain.Charge, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewBadRequestError("amount must be a positive number")
	}
	if !req.Amount.Round(2).Equal(req.Amount) {
		return nil, apperrors.NewBadRequestError("amount has more precision than the currency allows")
	}
	if req.SourceToken == "" {
		return nil, apperrors.NewBadRequestError("stripeToken.id is required")
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}
	if req.Description == "" {
		req.Description = defaultChargeDescription
	}
	req.IdentityID = claims.ID

	callCtx, cancel := s.WithCallTimeout(ctx)
	defer cancel()

	start := time.Now()
	charge, err := s.gateway.Charge(callCtx, req)
	s.metrics.RecordUpstreamLatency("payment", time.Since(start))
	if err != nil {
		var declined *apperrors.PaymentDeclinedError
		if errors.As(err, &declined) {
			s.LogWarn(ctx, "Charge declined", slog.String("identity_id", claims.ID), slog.String("decline_code", declined.Code))
			return nil, err
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		var upstream *apperrors.UpstreamError
		if !errors.As(err, &upstream) {
			err = apperrors.NewUpstreamError("payment", err)
		}
		s.LogError(ctx, err, "Charge failed", slog.String("identity_id", claims.ID))
		return nil, err
	}

	s.LogInfo(ctx, "Card charged", slog.String("identity_id", claims.ID), slog.String("charge_id", charge.ID))
	s.analytics.Enqueue(claims.ID, "card_charged", map[string]any{
		"amount":   charge.Amount.String(),
		"currency": charge.Currency,
	})
	return charge, nil
}

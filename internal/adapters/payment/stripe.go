// Package payment submits card charges to Stripe.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// DefaultAPIURL is Stripe's public API.
const DefaultAPIURL = "https://api.stripe.com"

const serviceName = "payment"

var minorUnits = decimal.NewFromInt(100)

// StripeGateway charges cards through the Stripe charges API.
type StripeGateway struct {
	secretKey string
	apiURL    string
	client    *http.Client
}

var _ portssvc.PaymentGateway = (*StripeGateway)(nil)

// NewStripeGateway creates a gateway. An empty apiURL uses DefaultAPIURL.
func NewStripeGateway(secretKey, apiURL string, client *http.Client) *StripeGateway {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &StripeGateway{secretKey: secretKey, apiURL: strings.TrimRight(apiURL, "/"), client: client}
}

type stripeCharge struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Paid        bool   `json:"paid"`
	Description string `json:"description"`
	Created     int64  `json:"created"`
}

type stripeErrorBody struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Message     string `json:"message"`
	} `json:"error"`
}

// Charge submits req. Amounts are converted to minor units; fractions of a cent are rejected.
func (g *StripeGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	cents := req.Amount.Mul(minorUnits)
	if !cents.Equal(cents.Truncate(0)) {
		return nil, apperrors.NewBadRequestError("amount has more precision than the currency allows")
	}

	form := url.Values{}
	form.Set("amount", cents.String())
	form.Set("currency", req.Currency)
	form.Set("source", req.SourceToken)
	form.Set("description", req.Description)
	if req.IdentityID != "" {
		form.Set("metadata[identity_id]", req.IdentityID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body stripeErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode == http.StatusPaymentRequired || body.Error.Type == "card_error" {
			code := body.Error.DeclineCode
			if code == "" {
				code = body.Error.Code
			}
			return nil, &apperrors.PaymentDeclinedError{Code: code, Message: body.Error.Message}
		}
		return nil, apperrors.NewUpstreamError(serviceName, fmt.Errorf("stripe returned %s: %s", resp.Status, body.Error.Message))
	}

	var charge stripeCharge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, apperrors.NewUpstreamError(serviceName, fmt.Errorf("failed to decode charge: %w", err))
	}
	return &domain.Charge{
		ID:          charge.ID,
		Amount:      decimal.New(charge.Amount, -2),
		Currency:    charge.Currency,
		Status:      charge.Status,
		Paid:        charge.Paid,
		Description: charge.Description,
		CreatedAt:   time.Unix(charge.Created, 0).UTC(),
	}, nil
}

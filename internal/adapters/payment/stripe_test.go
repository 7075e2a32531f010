package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/storefront_app/internal/adapters/payment"
	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StripeGatewayTestSuite struct {
	suite.Suite
	srv      *httptest.Server
	status   int
	body     string
	received http.Header
	form     map[string]string
	calls    int
	gateway  *payment.StripeGateway
}

func (suite *StripeGatewayTestSuite) SetupTest() {
	suite.calls = 0
	suite.status = http.StatusOK
	suite.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.calls++
		suite.received = r.Header.Clone()
		_ = r.ParseForm()
		suite.form = map[string]string{}
		for k := range r.PostForm {
			suite.form[k] = r.PostForm.Get(k)
		}
		if r.URL.Path != "/v1/charges" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(suite.status)
		_, _ = w.Write([]byte(suite.body))
	}))
	suite.gateway = payment.NewStripeGateway("sk_test_1", suite.srv.URL+"/", suite.srv.Client())
}

func (suite *StripeGatewayTestSuite) TearDownTest() {
	suite.srv.Close()
}

func TestStripeGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(StripeGatewayTestSuite))
}

func (suite *StripeGatewayTestSuite) request(amount string) domain.ChargeRequest {
	return domain.ChargeRequest{
		Amount:      decimal.RequireFromString(amount),
		Currency:    "usd",
		SourceToken: "tok_visa",
		Description: "Leaderboard",
		IdentityID:  "id-1",
	}
}

func (suite *StripeGatewayTestSuite) TestCharge_Success() {
	suite.body = `{"id":"ch_1","amount":1250,"currency":"usd","status":"succeeded","paid":true,"description":"Leaderboard","created":1700000000}`

	charge, err := suite.gateway.Charge(context.Background(), suite.request("12.50"))

	suite.Require().NoError(err)
	suite.Equal("Bearer sk_test_1", suite.received.Get("Authorization"))
	suite.Equal("1250", suite.form["amount"])
	suite.Equal("tok_visa", suite.form["source"])
	suite.Equal("id-1", suite.form["metadata[identity_id]"])
	suite.Equal("ch_1", charge.ID)
	suite.True(charge.Amount.Equal(decimal.RequireFromString("12.5")))
	suite.True(charge.Paid)
	suite.Equal(int64(1700000000), charge.CreatedAt.Unix())
}

func (suite *StripeGatewayTestSuite) TestCharge_SubCentAmountNeverLeaves() {
	_, err := suite.gateway.Charge(context.Background(), suite.request("1.005"))

	var appErr *apperrors.AppError
	suite.Require().ErrorAs(err, &appErr)
	suite.Equal(http.StatusBadRequest, appErr.Code)
	suite.Zero(suite.calls)
}

func (suite *StripeGatewayTestSuite) TestCharge_Declines() {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"402 with decline code", http.StatusPaymentRequired, `{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`, "insufficient_funds"},
		{"card error without decline code", http.StatusBadRequest, `{"error":{"type":"card_error","code":"expired_card","message":"Your card has expired."}}`, "expired_card"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.status = tt.status
			suite.body = tt.body

			_, err := suite.gateway.Charge(context.Background(), suite.request("5"))

			var declined *apperrors.PaymentDeclinedError
			suite.Require().ErrorAs(err, &declined)
			suite.Equal(tt.code, declined.Code)
			suite.NotEmpty(declined.Message)
		})
	}
}

func (suite *StripeGatewayTestSuite) TestCharge_ServerErrorIsUpstream() {
	suite.status = http.StatusInternalServerError
	suite.body = `{"error":{"type":"api_error","message":"boom"}}`

	_, err := suite.gateway.Charge(context.Background(), suite.request("5"))

	var upstream *apperrors.UpstreamError
	suite.Require().ErrorAs(err, &upstream)
	suite.Equal("payment", upstream.Service)
}

func TestStripeGateway_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := payment.NewStripeGateway("sk", url, nil).Charge(context.Background(), domain.ChargeRequest{
		Amount: decimal.NewFromInt(1), Currency: "usd", SourceToken: "tok",
	})
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

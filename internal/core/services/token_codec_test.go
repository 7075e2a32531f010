package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/core/services"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:               "test-secret-key-for-unit-tests-only",
		JWTIssuer:               "storefront-test",
		TokenExpiryDuration:     time.Hour,
		TempTokenExpiryDuration: 15 * time.Minute,
		CookieName:              "sfid",
		ClientURL:               "http://client.test",
		ServerURL:               "http://server.test",
		ExternalCallTimeout:     time.Second,
	}
}

type TokenCodecTestSuite struct {
	suite.Suite
	now   time.Time
	codec portssvc.TokenCodec
}

func (suite *TokenCodecTestSuite) SetupTest() {
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.codec = services.NewTokenCodec(testConfig(), services.WithClock(func() time.Time { return suite.now }))
}

func (suite *TokenCodecTestSuite) payload() domain.TokenPayload {
	return domain.TokenPayload{
		ID:          "0b0f8d5e-3f4c-4b1a-9d3e-0c7a4d2f1e11",
		Source:      domain.SourceEmail,
		Email:       "ada@example.com",
		Username:    "ada",
		Permissions: []domain.Permission{domain.PermissionViewProfile},
		Confirmed:   true,
	}
}

func (suite *TokenCodecTestSuite) TestIssueVerify_RoundTrip() {
	token, err := suite.codec.Issue(suite.payload(), domain.TokenStandard)
	suite.Require().NoError(err)

	got, err := suite.codec.Verify(token)
	suite.Require().NoError(err)
	want := suite.payload()
	want.Kind = domain.TokenStandard
	suite.Equal(&want, got)
}

func (suite *TokenCodecTestSuite) TestVerify_TemporaryExpiresBeforeStandard() {
	temp, err := suite.codec.Issue(suite.payload(), domain.TokenTemporary)
	suite.Require().NoError(err)
	std, err := suite.codec.Issue(suite.payload(), domain.TokenStandard)
	suite.Require().NoError(err)

	suite.now = suite.now.Add(20 * time.Minute)

	_, err = suite.codec.Verify(temp)
	reason, ok := apperrors.VerificationReasonOf(err)
	suite.True(ok)
	suite.Equal(apperrors.ReasonExpired, reason)

	got, err := suite.codec.Verify(std)
	suite.Require().NoError(err)
	suite.Equal(domain.TokenStandard, got.Kind)
}

func (suite *TokenCodecTestSuite) TestVerify_ExpiredAfterStandardWindow() {
	token, err := suite.codec.Issue(suite.payload(), domain.TokenStandard)
	suite.Require().NoError(err)

	suite.now = suite.now.Add(time.Hour + time.Second)
	_, err = suite.codec.Verify(token)
	reason, _ := apperrors.VerificationReasonOf(err)
	suite.Equal(apperrors.ReasonExpired, reason)
}

func (suite *TokenCodecTestSuite) TestVerify_Failures() {
	valid, err := suite.codec.Issue(suite.payload(), domain.TokenStandard)
	suite.Require().NoError(err)

	other := testConfig()
	other.JWTSecret = "a-different-secret"
	foreign, err := services.NewTokenCodec(other).Issue(suite.payload(), domain.TokenStandard)
	suite.Require().NoError(err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"kind": "standard", "exp": suite.now.Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	cases := []struct {
		name   string
		token  string
		reason apperrors.VerificationReason
	}{
		{"empty", "", apperrors.ReasonMissingToken},
		{"whitespace", "   ", apperrors.ReasonMissingToken},
		{"garbage", "not-a-token", apperrors.ReasonMalformed},
		{"truncated", valid[:len(valid)-5], apperrors.ReasonSignatureInvalid},
		{"foreign secret", foreign, apperrors.ReasonSignatureInvalid},
		{"alg none", noneToken, apperrors.ReasonSignatureInvalid},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			got, err := suite.codec.Verify(tc.token)
			suite.Nil(got)
			reason, ok := apperrors.VerificationReasonOf(err)
			suite.True(ok, "expected a verification error, got %v", err)
			suite.Equal(tc.reason, reason)
		})
	}
}

func (suite *TokenCodecTestSuite) TestIssue_RejectsMalformedInput() {
	var encErr *apperrors.EncodingError

	_, err := suite.codec.Issue(suite.payload(), domain.TokenKind("refresh"))
	suite.ErrorAs(err, &encErr)

	_, err = suite.codec.Issue(domain.TokenPayload{Source: domain.SourceEmail}, domain.TokenStandard)
	suite.ErrorAs(err, &encErr)

	p := suite.payload()
	p.Source = domain.Source("myspace")
	_, err = suite.codec.Issue(p, domain.TokenStandard)
	suite.ErrorAs(err, &encErr)
}

func (suite *TokenCodecTestSuite) TestIssue_EmailOnlyPayload() {
	token, err := suite.codec.Issue(domain.TokenPayload{Email: "reset@example.com", Source: domain.SourceEmail}, domain.TokenTemporary)
	suite.Require().NoError(err)

	got, err := suite.codec.Verify(token)
	suite.Require().NoError(err)
	suite.Empty(got.ID)
	suite.Equal("reset@example.com", got.Email)
	suite.Equal(domain.TokenTemporary, got.Kind)
}

func (suite *TokenCodecTestSuite) TestIssue_PurposeOnlyOnTemporaryTokens() {
	p := suite.payload()
	p.Purpose = domain.PurposeResetPassword

	temp, err := suite.codec.Issue(p, domain.TokenTemporary)
	suite.Require().NoError(err)
	got, err := suite.codec.Verify(temp)
	suite.Require().NoError(err)
	suite.Equal(domain.PurposeResetPassword, got.Purpose)

	std, err := suite.codec.Issue(p, domain.TokenStandard)
	suite.Require().NoError(err)
	got, err = suite.codec.Verify(std)
	suite.Require().NoError(err)
	suite.Empty(got.Purpose)
}

func TestTokenCodecTestSuite(t *testing.T) {
	suite.Run(t, new(TokenCodecTestSuite))
}

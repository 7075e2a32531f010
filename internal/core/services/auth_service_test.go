package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/core/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testPassword = "correct-horse-1"

type AuthServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	mailer     *MockMailer
	identities portssvc.IdentitySvcFacade
	tokens     portssvc.TokenCodec
	service    portssvc.AuthSvcFacade
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mailer = new(MockMailer)
	suite.identities = services.NewIdentityService(memory.NewIdentityRepository())
	suite.tokens = services.NewTokenCodec(testConfig())
	suite.service = services.NewAuthService(suite.identities, suite.tokens, suite.mailer)
}

func assertAppError(s *suite.Suite, err error, status int, msg string) {
	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(status, appErr.Code)
	if msg != "" {
		s.Equal(msg, appErr.Message)
	}
}

// register creates a pending account and returns the mailed confirmation token.
func (suite *AuthServiceTestSuite) register(email, username string) string {
	var token string
	suite.mailer.On("SendEmailConfirmation", mock.Anything, email, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { token = args.String(2) }).
		Return(nil).Once()

	err := suite.service.Register(suite.ctx, dto.RegisterRequest{Email: email, Username: username, Password: testPassword})
	suite.Require().NoError(err)
	suite.Require().NotEmpty(token)
	return token
}

func (suite *AuthServiceTestSuite) claims(token string) *domain.TokenPayload {
	claims, err := suite.tokens.Verify(token)
	suite.Require().NoError(err)
	return claims
}

// confirmed registers and confirms an account, returning its standard token.
func (suite *AuthServiceTestSuite) confirmed(email, username string) string {
	token, err := suite.service.Confirm(suite.ctx, suite.claims(suite.register(email, username)))
	suite.Require().NoError(err)
	return token
}

func (suite *AuthServiceTestSuite) TestRegister_SendsTemporaryToken() {
	token := suite.register("ada@example.com", "ada")

	claims := suite.claims(token)
	suite.Equal(domain.TokenTemporary, claims.Kind)
	suite.Equal("ada@example.com", claims.Email)
	suite.False(claims.Confirmed)
	suite.Empty(claims.Permissions)
	suite.mailer.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestRegister_ExistingEmail() {
	suite.register("ada@example.com", "ada")

	err := suite.service.Register(suite.ctx, dto.RegisterRequest{Email: "ada@example.com", Password: testPassword})
	assertAppError(&suite.Suite, err, http.StatusConflict, "User already exists")
}

func (suite *AuthServiceTestSuite) TestRegister_UsernameTaken() {
	suite.register("ada@example.com", "ada")

	err := suite.service.Register(suite.ctx, dto.RegisterRequest{Email: "other@example.com", Username: "ADA", Password: testPassword})
	field, ok := apperrors.ConflictField(err)
	suite.True(ok)
	suite.Equal("username", field)
}

func (suite *AuthServiceTestSuite) TestRegister_MailFailureIsUpstream() {
	suite.mailer.On("SendEmailConfirmation", mock.Anything, "ada@example.com", mock.Anything).Return(errors.New("smtp down")).Once()

	err := suite.service.Register(suite.ctx, dto.RegisterRequest{Email: "ada@example.com", Password: testPassword})
	var upstream *apperrors.UpstreamError
	suite.Require().ErrorAs(err, &upstream)
	suite.Equal("mail", upstream.Service)
}

func (suite *AuthServiceTestSuite) TestConfirm_GrantsBaselinePermissions() {
	token := suite.confirmed("ada@example.com", "ada")

	claims := suite.claims(token)
	suite.Equal(domain.TokenStandard, claims.Kind)
	suite.True(claims.Confirmed)
	suite.ElementsMatch(domain.BaselinePermissions, claims.Permissions)

	identity, err := suite.service.Profile(suite.ctx, claims)
	suite.Require().NoError(err)
	suite.True(identity.Confirmed)
}

func (suite *AuthServiceTestSuite) TestConfirm_RejectsStandardToken() {
	std := suite.confirmed("ada@example.com", "ada")

	_, err := suite.service.Confirm(suite.ctx, suite.claims(std))
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Not authorized")
}

func (suite *AuthServiceTestSuite) TestConfirm_RejectsTokenForReplacedEmail() {
	temp := suite.register("ada@example.com", "ada")
	claims := suite.claims(temp)

	email := "new@example.com"
	_, err := suite.identities.UpdateIdentity(suite.ctx, domain.SourceEmail, domain.Probe{ID: claims.ID}, domain.IdentityPatch{Email: &email})
	suite.Require().NoError(err)

	_, err = suite.service.Confirm(suite.ctx, claims)
	assertAppError(&suite.Suite, err, http.StatusForbidden, "")
}

func (suite *AuthServiceTestSuite) TestResendConfirmation_DoesNotInvalidateEarlierLinks() {
	first := suite.register("ada@example.com", "ada")

	var second string
	suite.mailer.On("SendEmailConfirmation", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { second = args.String(2) }).Return(nil).Twice()

	returned, err := suite.service.ResendConfirmation(suite.ctx, suite.claims(first))
	suite.Require().NoError(err)
	suite.Equal(second, returned)
	_, err = suite.service.ResendConfirmation(suite.ctx, suite.claims(first))
	suite.Require().NoError(err)

	_, err = suite.service.Confirm(suite.ctx, suite.claims(first))
	suite.Require().NoError(err)
	suite.mailer.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestResendConfirmation_UnknownIdentity() {
	_, err := suite.service.ResendConfirmation(suite.ctx, &domain.TokenPayload{Email: "ghost@example.com", Source: domain.SourceEmail})
	assertAppError(&suite.Suite, err, http.StatusNotFound, "No user found")
}

func (suite *AuthServiceTestSuite) TestLogin_Branches() {
	suite.confirmed("ada@example.com", "ada")
	suite.register("pending@example.com", "pending")
	_, err := suite.identities.CreateIdentity(suite.ctx, domain.SourceFacebook, domain.RawProfile{ID: "fb-1", Emails: []string{"fb@example.com"}})
	suite.Require().NoError(err)

	_, err = suite.service.Login(suite.ctx, dto.LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assertAppError(&suite.Suite, err, http.StatusNotFound, "No user found")

	_, err = suite.service.Login(suite.ctx, dto.LoginRequest{Email: "pending@example.com", Password: testPassword})
	assertAppError(&suite.Suite, err, http.StatusConflict, "Email has not been confirmed")

	_, err = suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password-1"})
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Incorrect credentials")

	_, err = suite.service.Login(suite.ctx, dto.LoginRequest{Email: "fb@example.com", Password: testPassword})
	var mismatch *apperrors.ProviderMismatchError
	suite.Require().ErrorAs(err, &mismatch)
	suite.Equal("facebook", mismatch.Source)

	result, err := suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ADA", Password: testPassword})
	suite.Require().NoError(err)
	suite.Equal("ada@example.com", result.Identity.Email)
	suite.Equal(domain.TokenStandard, suite.claims(result.Token).Kind)
}

func (suite *AuthServiceTestSuite) TestRequestPasswordReset_SideChannels() {
	suite.confirmed("ada@example.com", "ada")
	suite.register("pending@example.com", "pending")
	fb, err := suite.identities.CreateIdentity(suite.ctx, domain.SourceFacebook, domain.RawProfile{ID: "fb-1", Emails: []string{"fb@example.com"}})
	suite.Require().NoError(err)
	confirmed := true
	_, err = suite.identities.UpdateIdentity(suite.ctx, domain.SourceFacebook, domain.Probe{ID: fb.ID}, domain.IdentityPatch{Confirmed: &confirmed})
	suite.Require().NoError(err)

	var resetToken string
	suite.mailer.On("SendNoUserFoundEmail", mock.Anything, "nobody@example.com").Return(nil).Once()
	suite.mailer.On("SendNoUserFoundEmail", mock.Anything, "pending@example.com").Return(nil).Once()
	suite.mailer.On("SendUseProviderEmail", mock.Anything, "fb@example.com", domain.SourceFacebook).Return(nil).Once()
	suite.mailer.On("SendPasswordChangeEmail", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { resetToken = args.String(2) }).Return(nil).Once()

	for _, email := range []string{"nobody@example.com", "pending@example.com", "fb@example.com", "ada@example.com"} {
		suite.Require().NoError(suite.service.RequestPasswordReset(suite.ctx, email))
	}
	suite.mailer.AssertExpectations(suite.T())

	claims := suite.claims(resetToken)
	suite.Equal(domain.TokenTemporary, claims.Kind)
	suite.Empty(claims.ID)
	suite.Equal("ada@example.com", claims.Email)
}

func (suite *AuthServiceTestSuite) TestCompletePasswordReset() {
	suite.confirmed("ada@example.com", "ada")

	claims := &domain.TokenPayload{Email: "ada@example.com", Source: domain.SourceEmail, Kind: domain.TokenTemporary, Purpose: domain.PurposeResetPassword}
	suite.Require().NoError(suite.service.CompletePasswordReset(suite.ctx, claims, "brand-new-pass-2"))

	_, err := suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ada@example.com", Password: testPassword})
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Incorrect credentials")
	_, err = suite.service.Login(suite.ctx, dto.LoginRequest{Email: "ada@example.com", Password: "brand-new-pass-2"})
	suite.Require().NoError(err)

	ghost := &domain.TokenPayload{Email: "ghost@example.com", Kind: domain.TokenTemporary, Purpose: domain.PurposeResetPassword}
	err = suite.service.CompletePasswordReset(suite.ctx, ghost, "whatever-pass-3")
	assertAppError(&suite.Suite, err, http.StatusUnauthorized, "No user found")
}

func (suite *AuthServiceTestSuite) TestTemporaryTokensAreBoundToTheirTransition() {
	confirmation := suite.register("ada@example.com", "ada")

	err := suite.service.CompletePasswordReset(suite.ctx, suite.claims(confirmation), "brand-new-pass-2")
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Not authorized")

	_, err = suite.service.Confirm(suite.ctx, suite.claims(confirmation))
	suite.Require().NoError(err)

	var reset string
	suite.mailer.On("SendPasswordChangeEmail", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { reset = args.String(2) }).Return(nil).Once()
	suite.Require().NoError(suite.service.RequestPasswordReset(suite.ctx, "ada@example.com"))
	suite.Require().NotEmpty(reset)

	resetClaims := suite.claims(reset)
	suite.Equal(domain.PurposeResetPassword, resetClaims.Purpose)
	_, err = suite.service.Confirm(suite.ctx, resetClaims)
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Not authorized")
	_, err = suite.service.ResendConfirmation(suite.ctx, resetClaims)
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Not authorized")

	suite.Require().NoError(suite.service.CompletePasswordReset(suite.ctx, resetClaims, "brand-new-pass-2"))
	suite.mailer.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestCompleteProfile_ReentersConfirmation() {
	ig, err := suite.identities.CreateIdentity(suite.ctx, domain.SourceInstagram, domain.RawProfile{ID: "ig-1", Username: "grace.h"})
	suite.Require().NoError(err)
	claims := domain.PayloadFromIdentity(ig)
	claims.Kind = domain.TokenStandard

	suite.mailer.On("SendEmailConfirmation", mock.Anything, "grace@example.com", mock.Anything).Return(nil).Once()
	token, err := suite.service.CompleteProfile(suite.ctx, &claims, dto.CompleteProfileRequest{Email: "grace@example.com"})
	suite.Require().NoError(err)

	temp := suite.claims(token)
	suite.Equal(domain.TokenTemporary, temp.Kind)
	suite.Equal("grace@example.com", temp.Email)

	_, err = suite.service.CompleteProfile(suite.ctx, &claims, dto.CompleteProfileRequest{Source: domain.SourceFacebook, Email: "x@example.com"})
	assertAppError(&suite.Suite, err, http.StatusBadRequest, "")
}

func (suite *AuthServiceTestSuite) TestCompleteProfile_RejectsEmailAccounts() {
	std := suite.confirmed("ada@example.com", "ada")

	_, err := suite.service.CompleteProfile(suite.ctx, suite.claims(std), dto.CompleteProfileRequest{Email: "other@example.com"})
	assertAppError(&suite.Suite, err, http.StatusForbidden, "")

	identity, err := suite.service.Profile(suite.ctx, suite.claims(std))
	suite.Require().NoError(err)
	suite.Equal("ada@example.com", identity.Email)
	suite.True(identity.Confirmed)
	suite.mailer.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestChangeEmail() {
	std := suite.confirmed("ada@example.com", "ada")
	claims := suite.claims(std)

	_, err := suite.service.ChangeEmail(suite.ctx, claims, dto.ChangeEmailRequest{Email: "new@example.com", Password: "nope-nope-1"})
	assertAppError(&suite.Suite, err, http.StatusBadRequest, "Incorrect password")

	suite.mailer.On("SendEmailConfirmation", mock.Anything, "new@example.com", mock.Anything).Return(nil).Once()
	_, err = suite.service.ChangeEmail(suite.ctx, claims, dto.ChangeEmailRequest{Email: "new@example.com", Password: testPassword})
	suite.Require().NoError(err)

	identity, err := suite.service.Profile(suite.ctx, claims)
	suite.Require().NoError(err)
	suite.Equal("new@example.com", identity.Email)
	suite.False(identity.Confirmed)
	suite.Empty(identity.Permissions)
}

func (suite *AuthServiceTestSuite) TestAddValue() {
	claims := suite.claims(suite.confirmed("ada@example.com", "ada"))

	_, err := suite.service.AddValue(suite.ctx, claims, decimal.Zero)
	assertAppError(&suite.Suite, err, http.StatusBadRequest, "")

	updated, err := suite.service.AddValue(suite.ctx, claims, decimal.RequireFromString("1.25"))
	suite.Require().NoError(err)
	suite.Equal("1.25", updated.Value.String())

	board, err := suite.service.Leaderboard(suite.ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(board, 1)
	suite.Equal("ada", board[0].Username)
}

func (suite *AuthServiceTestSuite) TestDeleteAccount_RevokesAccess() {
	claims := suite.claims(suite.confirmed("ada@example.com", "ada"))

	suite.Require().NoError(suite.service.DeleteAccount(suite.ctx, claims))

	_, err := suite.service.Profile(suite.ctx, claims)
	assertAppError(&suite.Suite, err, http.StatusForbidden, "Not authorized")
	err = suite.service.DeleteAccount(suite.ctx, claims)
	assertAppError(&suite.Suite, err, http.StatusForbidden, "")
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

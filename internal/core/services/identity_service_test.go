package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/SscSPs/storefront_app/internal/apperrors"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/core/services"
	"github.com/SscSPs/storefront_app/internal/repositories/database/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type IdentityProbeTestSuite struct {
	suite.Suite
	mockRepo *MockIdentityRepository
	service  portssvc.IdentitySvcFacade
}

func (suite *IdentityProbeTestSuite) SetupTest() {
	suite.mockRepo = new(MockIdentityRepository)
	suite.service = services.NewIdentityService(suite.mockRepo)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_IDWins() {
	ctx := context.Background()
	id := uuid.NewString()
	want := &domain.Identity{ID: id}
	suite.mockRepo.On("FindByID", ctx, id).Return(want, nil).Once()

	got, err := suite.service.FindIdentity(ctx, domain.SourceFacebook, domain.Probe{ID: id, ExternalID: "fb-1", Email: "a@example.com"})
	suite.Require().NoError(err)
	suite.Same(want, got)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByProvider", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByEmail", mock.Anything, mock.Anything)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_IDMissDoesNotFallThrough() {
	ctx := context.Background()
	id := uuid.NewString()
	suite.mockRepo.On("FindByID", ctx, id).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.FindIdentity(ctx, domain.SourceFacebook, domain.Probe{ID: id, ExternalID: "fb-1"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByProvider", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_NonUUIDIDIsSkipped() {
	ctx := context.Background()
	want := &domain.Identity{ID: uuid.NewString()}
	suite.mockRepo.On("FindByProvider", ctx, domain.SourceInstagram, "ig-1").Return(want, nil).Once()

	got, err := suite.service.FindIdentity(ctx, domain.SourceInstagram, domain.Probe{ID: "ig-1", ExternalID: "ig-1"})
	suite.Require().NoError(err)
	suite.Same(want, got)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByID", mock.Anything, mock.Anything)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_ProviderBeforeEmail() {
	ctx := context.Background()
	suite.mockRepo.On("FindByProvider", ctx, domain.SourceFacebook, "fb-1").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.FindIdentity(ctx, domain.SourceFacebook, domain.Probe{ExternalID: "fb-1", Email: "a@example.com"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByEmail", mock.Anything, mock.Anything)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_EmailOnly() {
	ctx := context.Background()
	want := &domain.Identity{ID: uuid.NewString()}
	suite.mockRepo.On("FindByEmail", ctx, "a@example.com").Return(want, nil).Once()

	got, err := suite.service.FindIdentity(ctx, domain.SourceEmail, domain.Probe{Email: " a@example.com "})
	suite.Require().NoError(err)
	suite.Same(want, got)
}

func (suite *IdentityProbeTestSuite) TestFindIdentity_EmptyProbe() {
	_, err := suite.service.FindIdentity(context.Background(), domain.SourceEmail, domain.Probe{})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *IdentityProbeTestSuite) TestFindByLogin_Routing() {
	ctx := context.Background()
	byEmail := &domain.Identity{ID: "1"}
	byUsername := &domain.Identity{ID: "2"}
	suite.mockRepo.On("FindByEmail", ctx, "ada@example.com").Return(byEmail, nil).Once()
	suite.mockRepo.On("FindByUsername", ctx, "ada").Return(byUsername, nil).Once()

	got, err := suite.service.FindByLogin(ctx, "ada@example.com")
	suite.Require().NoError(err)
	suite.Same(byEmail, got)

	got, err = suite.service.FindByLogin(ctx, "ada")
	suite.Require().NoError(err)
	suite.Same(byUsername, got)
}

func (suite *IdentityProbeTestSuite) TestListIdentities_ClampsLimit() {
	ctx := context.Background()
	suite.mockRepo.On("ListByValue", ctx, 10).Return([]domain.Identity{}, nil).Once()
	suite.mockRepo.On("ListByValue", ctx, 100).Return([]domain.Identity{}, nil).Once()

	_, err := suite.service.ListIdentities(ctx, 0)
	suite.Require().NoError(err)
	_, err = suite.service.ListIdentities(ctx, 5000)
	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestIdentityProbeTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityProbeTestSuite))
}

// IdentityStoreTestSuite runs the adapter against the in-memory repository.
type IdentityStoreTestSuite struct {
	suite.Suite
	service portssvc.IdentitySvcFacade
}

func (suite *IdentityStoreTestSuite) SetupTest() {
	suite.service = services.NewIdentityService(memory.NewIdentityRepository())
}

func (suite *IdentityStoreTestSuite) TestCreateIdentity_Defaults() {
	ctx := context.Background()
	created, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "s3cretpass",
	})
	suite.Require().NoError(err)
	suite.NotEmpty(created.ID)
	suite.False(created.Confirmed)
	suite.Empty(created.Permissions)
	suite.True(created.Value.Equal(decimal.Zero))
	suite.NotEqual("s3cretpass", created.PasswordHash)
	suite.True(created.HasPassword())
	suite.Empty(created.ProviderLinks)
}

func (suite *IdentityStoreTestSuite) TestCreateIdentity_DuplicateEmailConflicts() {
	ctx := context.Background()
	_, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Email: "ada@example.com"})
	suite.Require().NoError(err)

	_, err = suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Email: "ADA@example.com"})
	field, ok := apperrors.ConflictField(err)
	suite.True(ok)
	suite.Equal("email", field)
}

func (suite *IdentityStoreTestSuite) TestCreateIdentity_Validation() {
	ctx := context.Background()
	_, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Username: "noemail"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateIdentity(ctx, domain.SourceFacebook, domain.RawProfile{DisplayName: "no id"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateIdentity(ctx, domain.Source("myspace"), domain.RawProfile{ID: "1"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *IdentityStoreTestSuite) TestFindOrCreateIdentity_Idempotent() {
	ctx := context.Background()
	raw := domain.RawProfile{ID: "fb-42", DisplayName: "Grace", Emails: []string{"grace@example.com"}}

	first, err := suite.service.FindOrCreateIdentity(ctx, domain.SourceFacebook, raw)
	suite.Require().NoError(err)
	second, err := suite.service.FindOrCreateIdentity(ctx, domain.SourceFacebook, raw)
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.Equal(domain.ProviderLink{ExternalID: "fb-42"}, second.ProviderLinks[domain.SourceFacebook])
}

func (suite *IdentityStoreTestSuite) TestFindOrCreateIdentity_DoesNotClaimEmailAccount() {
	ctx := context.Background()
	existing, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Email: "grace@example.com"})
	suite.Require().NoError(err)

	_, err = suite.service.FindOrCreateIdentity(ctx, domain.SourceFacebook, domain.RawProfile{ID: "fb-7", Emails: []string{"grace@example.com"}})
	field, ok := apperrors.ConflictField(err)
	suite.True(ok)
	suite.Equal("email", field)

	still, err := suite.service.FindIdentity(ctx, domain.SourceEmail, domain.Probe{ID: existing.ID})
	suite.Require().NoError(err)
	suite.Empty(still.ProviderLinks)
}

func (suite *IdentityStoreTestSuite) TestFindOrCreateIdentity_ConcurrentCallersShareOneRecord() {
	ctx := context.Background()
	raw := domain.RawProfile{ID: "ig-99", Username: "racer"}

	const callers = 16
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity, err := suite.service.FindOrCreateIdentity(ctx, domain.SourceInstagram, raw)
			if err != nil {
				// a losing creator sees the conflict and resolves on retry
				identity, err = suite.service.FindOrCreateIdentity(ctx, domain.SourceInstagram, raw)
			}
			if err == nil {
				ids <- identity.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	suite.Len(seen, 1)

	all, err := suite.service.ListIdentities(ctx, 100)
	suite.Require().NoError(err)
	suite.Len(all, 1)
}

func (suite *IdentityStoreTestSuite) TestUpdateIdentity_AppliesPatch() {
	ctx := context.Background()
	created, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Email: "ada@example.com"})
	suite.Require().NoError(err)

	delta := decimal.RequireFromString("2.50")
	confirmed := true
	updated, err := suite.service.UpdateIdentity(ctx, domain.SourceEmail, domain.Probe{ID: created.ID}, domain.IdentityPatch{
		Confirmed:  &confirmed,
		ValueDelta: &delta,
	})
	suite.Require().NoError(err)
	suite.True(updated.Confirmed)
	suite.Equal("2.5", updated.Value.String())

	updated, err = suite.service.UpdateIdentity(ctx, domain.SourceEmail, domain.Probe{Email: "ada@example.com"}, domain.IdentityPatch{ValueDelta: &delta})
	suite.Require().NoError(err)
	suite.Equal("5", updated.Value.String())
}

func (suite *IdentityStoreTestSuite) TestUpdateIdentity_EmailConflict() {
	ctx := context.Background()
	_, err := suite.service.CreateIdentity(ctx, domain.SourceEmail, domain.RawProfile{Email: "taken@example.com"})
	suite.Require().NoError(err)
	other, err := suite.service.CreateIdentity(ctx, domain.SourceFacebook, domain.RawProfile{ID: "fb-1"})
	suite.Require().NoError(err)

	email := "Taken@Example.com"
	_, err = suite.service.UpdateIdentity(ctx, domain.SourceFacebook, domain.Probe{ID: other.ID}, domain.IdentityPatch{Email: &email})
	field, ok := apperrors.ConflictField(err)
	suite.True(ok)
	suite.Equal("email", field)
}

func (suite *IdentityStoreTestSuite) TestDeleteIdentity() {
	ctx := context.Background()
	created, err := suite.service.CreateIdentity(ctx, domain.SourceGoogle, domain.RawProfile{ID: "g-1", Email: "g@example.com"})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteIdentity(ctx, domain.SourceGoogle, domain.Probe{ExternalID: "g-1"}))

	_, err = suite.service.FindIdentity(ctx, domain.SourceGoogle, domain.Probe{ID: created.ID})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	err = suite.service.DeleteIdentity(ctx, domain.SourceGoogle, domain.Probe{ID: created.ID})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestIdentityStoreTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityStoreTestSuite))
}

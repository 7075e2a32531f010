package services_test

import (
	"context"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockIdentityRepository is a mock type for the IdentityRepositoryFacade interface
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) identity(args mock.Arguments) (*domain.Identity, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return m.identity(m.Called(ctx, id))
}

func (m *MockIdentityRepository) FindByProvider(ctx context.Context, source domain.Source, externalID string) (*domain.Identity, error) {
	return m.identity(m.Called(ctx, source, externalID))
}

func (m *MockIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return m.identity(m.Called(ctx, email))
}

func (m *MockIdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return m.identity(m.Called(ctx, username))
}

func (m *MockIdentityRepository) ListByValue(ctx context.Context, limit int) ([]domain.Identity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityRepository) Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error) {
	return m.identity(m.Called(ctx, id, patch))
}

func (m *MockIdentityRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockMailer records outgoing mail.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendEmailConfirmation(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func (m *MockMailer) SendPasswordChangeEmail(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func (m *MockMailer) SendNoUserFoundEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockMailer) SendUseProviderEmail(ctx context.Context, email string, source domain.Source) error {
	return m.Called(ctx, email, source).Error(0)
}

// MockPaymentGateway is a mock type for the PaymentGateway interface
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

// fakeStrategy is an OAuth strategy returning a canned profile.
type fakeStrategy struct {
	source  domain.Source
	profile domain.RawProfile
	err     error
	calls   int
}

func (s *fakeStrategy) Source() domain.Source { return s.source }

func (s *fakeStrategy) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (s *fakeStrategy) Exchange(ctx context.Context, code string) (*domain.RawProfile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p := s.profile
	return &p, nil
}

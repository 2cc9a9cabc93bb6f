package services_test

import (
	"context"

	"stokvel/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockStokvelRepository is a mock implementation of repositories.StokvelRepository
type MockStokvelRepository struct {
	mock.Mock
}

func (m *MockStokvelRepository) Create(ctx context.Context, stokvel *models.Stokvel) error {
	args := m.Called(ctx, stokvel)
	if args.Error(0) == nil && stokvel.ID == 0 {
		stokvel.ID = 42
	}
	return args.Error(0)
}

func (m *MockStokvelRepository) GetByID(ctx context.Context, id uint) (*models.Stokvel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stokvel), args.Error(1)
}

func (m *MockStokvelRepository) GetByJoinCode(ctx context.Context, code string) (*models.Stokvel, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stokvel), args.Error(1)
}

func (m *MockStokvelRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStokvelRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Stokvel, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Stokvel), args.Error(1)
}

func (m *MockStokvelRepository) ListByMember(ctx context.Context, userID uint) ([]models.Stokvel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Stokvel), args.Error(1)
}

// MockMembershipRepository is a mock implementation of repositories.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) AddMember(ctx context.Context, userID, stokvelID uint) (*models.Membership, error) {
	args := m.Called(ctx, userID, stokvelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByStokvel(ctx context.Context, stokvelID uint) ([]models.Membership, error) {
	args := m.Called(ctx, stokvelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Membership), args.Error(1)
}

// MockSender is a mock implementation of services.NotificationSender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, destination, message string) error {
	args := m.Called(ctx, destination, message)
	return args.Error(0)
}

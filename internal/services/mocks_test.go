package services_test

import (
	"context"
	"time"

	"albumportal/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of repositories.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time, ip string) error {
	args := m.Called(ctx, id, at, ip)
	return args.Error(0)
}

// DeleteIf applies match to the account configured as the first return
// value, so tests exercise the service's matching rule.
func (m *MockAccountRepository) DeleteIf(ctx context.Context, username string, match func(*models.Account) bool) (*models.Account, error) {
	args := m.Called(ctx, username)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	account := args.Get(0).(*models.Account)
	if !match(account) {
		return nil, args.Error(2)
	}
	return account, nil
}

// MockQuestionRepository is a mock implementation of repositories.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) List(ctx context.Context) ([]models.SecurityQuestion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SecurityQuestion), args.Error(1)
}

func (m *MockQuestionRepository) GetByQuestion(ctx context.Context, question string) (*models.SecurityQuestion, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SecurityQuestion), args.Error(1)
}

// MockAlbumRepository is a mock implementation of repositories.AlbumRepository
type MockAlbumRepository struct {
	mock.Mock
}

func (m *MockAlbumRepository) ListFeatured(ctx context.Context, limit int) ([]models.Album, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Album), args.Error(1)
}

func (m *MockAlbumRepository) ListByCategory(ctx context.Context, category models.Category) ([]models.Album, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Album), args.Error(1)
}

func (m *MockAlbumRepository) Search(ctx context.Context, filter models.AlbumFilter) ([]models.Album, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Album), args.Error(1)
}

func (m *MockAlbumRepository) ListWithThumbnails(ctx context.Context) ([]models.Album, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Album), args.Error(1)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishAccountEvent(event models.AccountEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"albumportal/internal/database"
	"albumportal/internal/models"

	"gorm.io/gorm"
)

// GORMAccountRepository is a GORM implementation of AccountRepository.
type GORMAccountRepository struct {
	db    *gorm.DB
	retry database.Retrier
}

// NewGORMAccountRepository creates a new instance of GORMAccountRepository.
func NewGORMAccountRepository(db *gorm.DB, retry database.Retrier) *GORMAccountRepository {
	return &GORMAccountRepository{db: db, retry: retry}
}

// Create inserts a new account. A clash on the username yields ErrDuplicate.
// Inserts are never replayed after a timeout.
func (r *GORMAccountRepository) Create(ctx context.Context, account *models.Account) error {
	err := r.retry.Once().Do(ctx, "create account", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(account).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %s: %w", account.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by username, ignoring case.
func (r *GORMAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	err := r.retry.Do(ctx, "get account", func(ctx context.Context) error {
		return r.db.WithContext(ctx).First(&account, "LOWER(username) = LOWER(?)", username).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", username, err)
	}
	return &account, nil
}

// UpdateLastLogin records the time and address of a successful login.
func (r *GORMAccountRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time, ip string) error {
	var affected int64
	err := r.retry.Do(ctx, "update last login", func(ctx context.Context) error {
		res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
			Updates(map[string]any{"last_login_time": at, "last_login_ip": ip})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIf loads the account and deletes it when match returns true. The
// returned account is the deleted row.
func (r *GORMAccountRepository) DeleteIf(ctx context.Context, username string, match func(*models.Account) bool) (*models.Account, error) {
	var deleted *models.Account
	err := r.retry.Once().Do(ctx, "delete account", func(ctx context.Context) error {
		deleted = nil
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var account models.Account
			if err := tx.First(&account, "LOWER(username) = LOWER(?)", username).Error; err != nil {
				return err
			}
			if !match(&account) {
				return gorm.ErrRecordNotFound
			}
			if err := tx.Delete(&models.Account{}, account.ID).Error; err != nil {
				return err
			}
			deleted = &account
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	return deleted, nil
}

// GORMQuestionRepository is a GORM implementation of QuestionRepository.
type GORMQuestionRepository struct {
	db    *gorm.DB
	retry database.Retrier
}

// NewGORMQuestionRepository creates a new instance of GORMQuestionRepository.
func NewGORMQuestionRepository(db *gorm.DB, retry database.Retrier) *GORMQuestionRepository {
	return &GORMQuestionRepository{db: db, retry: retry}
}

// List returns every question in insertion order.
func (r *GORMQuestionRepository) List(ctx context.Context) ([]models.SecurityQuestion, error) {
	var questions []models.SecurityQuestion
	err := r.retry.Do(ctx, "list questions", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Order("id").Find(&questions).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list security questions: %w", err)
	}
	return questions, nil
}

// GetByQuestion selects the row whose text equals question exactly.
func (r *GORMQuestionRepository) GetByQuestion(ctx context.Context, question string) (*models.SecurityQuestion, error) {
	var q models.SecurityQuestion
	err := r.retry.Do(ctx, "get question", func(ctx context.Context) error {
		return r.db.WithContext(ctx).First(&q, "question = ?", question).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get security question: %w", err)
	}
	return &q, nil
}

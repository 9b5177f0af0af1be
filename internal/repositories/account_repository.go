package repositories

import (
	"context"
	"time"

	"albumportal/internal/models"
)

// AccountRepository defines data access for portal accounts. Usernames are
// matched without regard to case.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time, ip string) error
	// DeleteIf removes the account named username when match approves it,
	// inside one transaction.
	DeleteIf(ctx context.Context, username string, match func(*models.Account) bool) (*models.Account, error)
}

// QuestionRepository defines read access to the shared security questions.
type QuestionRepository interface {
	List(ctx context.Context) ([]models.SecurityQuestion, error)
	GetByQuestion(ctx context.Context, question string) (*models.SecurityQuestion, error)
}

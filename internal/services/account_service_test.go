package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"albumportal/internal/logging"
	"albumportal/internal/models"
	"albumportal/internal/repositories"
	"albumportal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const colorQuestion = "What is your favorite color?"

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newAccountService(accounts *MockAccountRepository, questions *MockQuestionRepository, events services.EventPublisher) *services.AccountService {
	return services.NewAccountService(accounts, questions, events, logging.Discard(),
		services.WithHashCost(bcrypt.MinCost),
		services.WithAccountClock(func() time.Time { return fixedNow }))
}

func validRegistration() services.RegistrationInput {
	return services.RegistrationInput{
		Username: "alice01",
		Password: "Secret!1",
		Hint:     "my usual one",
		City:     "Springfield",
		State:    "Illinois",
		Country:  "US",
		Question: colorQuestion,
		Answer:   "  BLUE ",
	}
}

func TestAccountService_Register(t *testing.T) {
	accounts := new(MockAccountRepository)
	questions := new(MockQuestionRepository)
	events := new(MockEventPublisher)
	svc := newAccountService(accounts, questions, events)
	ctx := context.Background()

	questions.On("GetByQuestion", ctx, colorQuestion).Return(&models.SecurityQuestion{Question: colorQuestion, Answer: "blue"}, nil)
	accounts.On("Create", ctx, mock.AnythingOfType("*models.Account")).Return(nil).Once()
	events.On("PublishAccountEvent", mock.MatchedBy(func(e models.AccountEvent) bool {
		return e.Type == models.EventAccountRegistered && e.Username == "alice01" && e.ID != ""
	})).Return(nil).Once()

	result, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	stored := accounts.Calls[0].Arguments.Get(1).(*models.Account)
	assert.Equal(t, "alice01", stored.Username)
	assert.Equal(t, "my usual one", stored.PasswordHint)
	assert.NotEqual(t, "Secret!1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret!1")))

	// A second registration of the same name hits the unique constraint.
	accounts.On("Create", ctx, mock.AnythingOfType("*models.Account")).
		Return(fmt.Errorf("username alice01: %w", repositories.ErrDuplicate)).Once()
	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	accounts.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestAccountService_Register_CollectsEveryProblem(t *testing.T) {
	accounts := new(MockAccountRepository)
	questions := new(MockQuestionRepository)
	svc := newAccountService(accounts, questions, nil)

	_, err := svc.Register(context.Background(), services.RegistrationInput{
		Username: "bob",
		Password: "abc",
		Hint:     "abc",
		City:     "Rio",
		State:    "RJ",
		Country:  "B",
		Question: colorQuestion,
		Answer:   "blue",
	})

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Username must be at least 6 characters.",
		"Password must be at least 6 characters.",
		"Password must contain at least one uppercase letter.",
		"Password must contain at least one special character.",
		"Password hint must be more than 3 characters.",
		"City must be more than 3 characters.",
		"State must be more than 3 characters.",
		"Country must be at least 2 characters.",
	}, verr.Problems)

	questions.AssertNotCalled(t, "GetByQuestion", mock.Anything, mock.Anything)
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccountService_Register_MissingQuestionJoinsTheBatch(t *testing.T) {
	questions := new(MockQuestionRepository)
	svc := newAccountService(new(MockAccountRepository), questions, nil)

	in := validRegistration()
	in.Username = "bob"
	in.Question = "  "
	_, err := svc.Register(context.Background(), in)

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Username must be at least 6 characters.",
		"Please choose a security question.",
	}, verr.Problems)
	questions.AssertNotCalled(t, "GetByQuestion", mock.Anything, mock.Anything)
}

func TestAccountService_Register_PasswordRules(t *testing.T) {
	svc := newAccountService(new(MockAccountRepository), new(MockQuestionRepository), nil)

	tests := []struct {
		password string
		want     string
	}{
		{"secret!1", "Password must contain at least one uppercase letter."},
		{"Secret11", "Password must contain at least one special character."},
		{"Se!1", "Password must be at least 6 characters."},
		{"S!" + strings.Repeat("a", 71), "Password must be at most 72 bytes."},
	}
	for _, tt := range tests {
		in := validRegistration()
		in.Password = tt.password
		in.Hint = "nothing alike"

		_, err := svc.Register(context.Background(), in)

		var verr *services.ValidationError
		require.ErrorAs(t, err, &verr, tt.password)
		assert.Equal(t, []string{tt.want}, verr.Problems, tt.password)
	}
}

func TestAccountService_Register_ShortensHintContainingPassword(t *testing.T) {
	accounts := new(MockAccountRepository)
	questions := new(MockQuestionRepository)
	svc := newAccountService(accounts, questions, nil)
	ctx := context.Background()

	questions.On("GetByQuestion", ctx, colorQuestion).Return(&models.SecurityQuestion{Question: colorQuestion, Answer: "blue"}, nil)
	accounts.On("Create", ctx, mock.AnythingOfType("*models.Account")).Return(nil)

	in := validRegistration()
	in.Hint = "it is sEcReT!1 of course"
	result, err := svc.Register(ctx, in)

	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "shortened")

	stored := accounts.Calls[0].Arguments.Get(1).(*models.Account)
	assert.Equal(t, "it i", stored.PasswordHint)
	assert.NotContains(t, strings.ToLower(stored.PasswordHint), strings.ToLower(in.Password))
}

func TestAccountService_Register_WrongAnswer(t *testing.T) {
	accounts := new(MockAccountRepository)
	questions := new(MockQuestionRepository)
	svc := newAccountService(accounts, questions, nil)
	ctx := context.Background()

	questions.On("GetByQuestion", ctx, colorQuestion).Return(&models.SecurityQuestion{Question: colorQuestion, Answer: "blue"}, nil).Once()
	in := validRegistration()
	in.Answer = "green"
	_, err := svc.Register(ctx, in)
	assert.ErrorIs(t, err, services.ErrIncorrectAnswer)

	questions.On("GetByQuestion", ctx, "Who are you?").Return(nil, repositories.ErrNotFound).Once()
	in = validRegistration()
	in.Question = "Who are you?"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, services.ErrIncorrectAnswer)

	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccountService_Authenticate(t *testing.T) {
	accounts := new(MockAccountRepository)
	events := new(MockEventPublisher)
	svc := newAccountService(accounts, new(MockQuestionRepository), events)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret!1"), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.Account{ID: 7, Username: "alice01", PasswordHash: string(hash)}

	accounts.On("GetByUsername", ctx, "alice01").Return(account, nil)
	accounts.On("UpdateLastLogin", ctx, uint(7), fixedNow, "198.51.100.4").Return(nil).Once()
	events.On("PublishAccountEvent", mock.MatchedBy(func(e models.AccountEvent) bool {
		return e.Type == models.EventAccountLogin && e.IP == "198.51.100.4"
	})).Return(errors.New("broker down")).Once()

	got, err := svc.Authenticate(ctx, "alice01", "Secret!1", "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, "alice01", got.Username)
	require.NotNil(t, got.LastLoginTime)
	assert.Equal(t, fixedNow, *got.LastLoginTime)

	accounts.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestAccountService_Authenticate_UniformFailures(t *testing.T) {
	accounts := new(MockAccountRepository)
	svc := newAccountService(accounts, new(MockQuestionRepository), nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret!1"), bcrypt.MinCost)
	require.NoError(t, err)
	accounts.On("GetByUsername", ctx, "alice01").Return(&models.Account{ID: 7, Username: "alice01", PasswordHash: string(hash)}, nil)
	accounts.On("GetByUsername", ctx, "nobody").Return(nil, repositories.ErrNotFound)

	_, wrongPassword := svc.Authenticate(ctx, "alice01", "Wrong!1", "10.0.0.1")
	_, unknownUser := svc.Authenticate(ctx, "nobody", "Secret!1", "10.0.0.1")

	assert.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	accounts.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_RecoverHint(t *testing.T) {
	accounts := new(MockAccountRepository)
	svc := newAccountService(accounts, new(MockQuestionRepository), nil)
	ctx := context.Background()

	accounts.On("GetByUsername", ctx, "alice01").Return(&models.Account{Username: "alice01", PasswordHint: "first pet"}, nil)
	accounts.On("GetByUsername", ctx, "nohint1").Return(&models.Account{Username: "nohint1"}, nil)
	accounts.On("GetByUsername", ctx, "ghost01").Return(nil, repositories.ErrNotFound)

	hint, err := svc.RecoverHint(ctx, " alice01 ")
	require.NoError(t, err)
	assert.Equal(t, "first pet", hint)

	_, emptyHint := svc.RecoverHint(ctx, "nohint1")
	_, missing := svc.RecoverHint(ctx, "ghost01")
	assert.ErrorIs(t, emptyHint, services.ErrNoHint)
	assert.ErrorIs(t, missing, services.ErrNoHint)
	assert.Equal(t, emptyHint, missing)

	_, err = svc.RecoverHint(ctx, "   ")
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAccountService_DeleteAccount_PrefixMatch(t *testing.T) {
	accounts := new(MockAccountRepository)
	events := new(MockEventPublisher)
	svc := newAccountService(accounts, new(MockQuestionRepository), events)
	ctx := context.Background()

	accounts.On("DeleteIf", ctx, "alice").
		Return(&models.Account{Username: "Alice", City: "Spring Valley", State: "Il"}, nil, repositories.ErrNotFound).Once()
	events.On("PublishAccountEvent", mock.MatchedBy(func(e models.AccountEvent) bool {
		return e.Type == models.EventAccountDeleted && e.Username == "Alice"
	})).Return(nil).Once()

	require.NoError(t, svc.DeleteAccount(ctx, "alice", "springfield", "illinois"))

	accounts.On("DeleteIf", ctx, "alice").
		Return(&models.Account{Username: "Alice", City: "Spring Valley", State: "Indiana"}, nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, svc.DeleteAccount(ctx, "alice", "springfield", "illinois"), services.ErrNoMatchingAccount)

	accounts.On("DeleteIf", ctx, "ghost").Return(nil, repositories.ErrNotFound, nil).Once()
	assert.ErrorIs(t, svc.DeleteAccount(ctx, "ghost", "springfield", "illinois"), services.ErrNoMatchingAccount)

	var verr *services.ValidationError
	assert.ErrorAs(t, svc.DeleteAccount(ctx, "alice", "", "illinois"), &verr)

	accounts.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPrefixMatch(t *testing.T) {
	tests := []struct {
		stored, given string
		want          bool
	}{
		{"Spring Valley", "springfield", true},
		{"Il", "illinois", true},
		{"Indiana", "illinois", false},
		{"Chicago", "CHI", true},
		{"Chicago", "Chelsea", false},
		{"", "anything", false},
		{"Springfield", "s", false},
		{"Illinois", "i", false},
		{"Il", "i", false},
		{"Springfield", "SPRINGS", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, services.PrefixMatch(tt.stored, tt.given), "%q vs %q", tt.stored, tt.given)
	}
}

func TestAccountService_SecurityQuestions(t *testing.T) {
	questions := new(MockQuestionRepository)
	svc := newAccountService(new(MockAccountRepository), questions, nil)
	ctx := context.Background()

	questions.On("List", ctx).Return([]models.SecurityQuestion{
		{Question: "What is your favorite color?"},
		{Question: "What was your first car?"},
	}, nil)

	texts, err := svc.SecurityQuestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"What is your favorite color?", "What was your first car?"}, texts)
}

func TestResolveClientIP(t *testing.T) {
	assert.Equal(t, "203.0.113.9", services.ResolveClientIP(" 203.0.113.9 , 10.0.0.1", "10.0.0.1"))
	assert.Equal(t, "10.0.0.1", services.ResolveClientIP("", "10.0.0.1"))
	assert.Equal(t, "10.0.0.1", services.ResolveClientIP(" , ", "10.0.0.1"))
	assert.Equal(t, "Unknown", services.ResolveClientIP("", ""))
}

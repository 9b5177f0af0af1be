package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"albumportal/internal/logging"
	"albumportal/internal/models"
	"albumportal/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// hintKeep is how much of a hint survives when it contained the password.
const hintKeep = 4

// matchPrefix is how many leading characters of city and state must agree
// for an account deletion.
const matchPrefix = 3

// EventPublisher delivers account audit events.
type EventPublisher interface {
	PublishAccountEvent(event models.AccountEvent) error
}

// RegistrationInput is the raw registration form.
type RegistrationInput struct {
	Username string
	Password string
	Hint     string
	City     string
	State    string
	Country  string
	Question string
	Answer   string
}

// RegistrationResult reports a successful registration. Warnings are
// non-fatal notices such as a shortened hint.
type RegistrationResult struct {
	Account  *models.Account
	Warnings []string
}

// AccountService handles the account lifecycle: registration, login, hint
// recovery and deletion.
type AccountService struct {
	accounts  repositories.AccountRepository
	questions repositories.QuestionRepository
	events    EventPublisher
	log       logging.Logger
	validate  *validator.Validate
	hashCost  int
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AccountOption {
	return func(s *AccountService) { s.hashCost = cost }
}

// WithAccountClock overrides the clock used for login timestamps.
func WithAccountClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

// NewAccountService creates a new AccountService. events may be nil.
func NewAccountService(accounts repositories.AccountRepository, questions repositories.QuestionRepository,
	events EventPublisher, log logging.Logger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		accounts:  accounts,
		questions: questions,
		events:    events,
		log:       log.With("component", "accounts"),
		validate:  newValidator(),
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hasupper", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
	})
	_ = v.RegisterValidation("hasspecial", func(fl validator.FieldLevel) bool {
		return strings.ContainsAny(fl.Field().String(), SpecialCharacters)
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= 72
	})
	return v
}

type rule struct {
	value   string
	tag     string
	message string
}

// check runs every rule and collects the message of each one that fails.
func (s *AccountService) check(rules []rule) ([]string, error) {
	var problems []string
	for _, r := range rules {
		err := s.validate.Var(r.value, r.tag)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("failed to validate %q: %w", r.tag, err)
		}
		problems = append(problems, r.message)
	}
	return problems, nil
}

// Register validates the form, checks the security answer and stores the new
// account with a hashed password.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Hint = strings.TrimSpace(in.Hint)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Country = strings.TrimSpace(in.Country)
	in.Answer = strings.TrimSpace(in.Answer)

	problems, err := s.check([]rule{
		{in.Username, "min=6", "Username must be at least 6 characters."},
		{in.Password, "min=6", "Password must be at least 6 characters."},
		{in.Password, "hasupper", "Password must contain at least one uppercase letter."},
		{in.Password, "hasspecial", "Password must contain at least one special character."},
		{in.Password, "bcryptlen", "Password must be at most 72 bytes."},
		{in.Hint, "gt=3", "Password hint must be more than 3 characters."},
		{in.City, "gt=3", "City must be more than 3 characters."},
		{in.State, "gt=3", "State must be more than 3 characters."},
		{in.Country, "min=2", "Country must be at least 2 characters."},
		{strings.TrimSpace(in.Question), "required", "Please choose a security question."},
	})
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	result := &RegistrationResult{}
	if hint, shortened := scrubHint(in.Hint, in.Password); shortened {
		in.Hint = hint
		result.Warnings = append(result.Warnings,
			"Warning: Your hint contained your password. It has been automatically shortened for security.")
	}

	q, err := s.questions.GetByQuestion(ctx, in.Question)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIncorrectAnswer
		}
		return nil, fmt.Errorf("failed to load security question: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(q.Answer), in.Answer) {
		return nil, ErrIncorrectAnswer
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     in.Username,
		PasswordHash: string(hashed),
		PasswordHint: in.Hint,
		City:         in.City,
		State:        in.State,
		Country:      in.Country,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	s.publish(ctx, models.EventAccountRegistered, account.Username, "")
	result.Account = account
	return result, nil
}

// scrubHint shortens hint to its first few characters when it contains the
// password, compared case-insensitively.
func scrubHint(hint, password string) (string, bool) {
	if password == "" || !strings.Contains(strings.ToLower(hint), strings.ToLower(password)) {
		return hint, false
	}
	return firstRunes(hint, hintKeep), true
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Authenticate verifies the credentials and records the login. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password, clientIP string) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	at := s.now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, at, clientIP); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	account.LastLoginTime = &at
	account.LastLoginIP = clientIP

	s.publish(ctx, models.EventAccountLogin, account.Username, clientIP)
	return account, nil
}

func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	})
	return s.dummyHash
}

// RecoverHint returns the stored password hint. A missing account and an
// empty hint are reported identically.
func (s *AccountService) RecoverHint(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("Please enter a username.")
	}
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrNoHint
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if account.PasswordHint == "" {
		return "", ErrNoHint
	}
	return account.PasswordHint, nil
}

// DeleteAccount removes the account when the username matches ignoring case
// and city and state agree on their first three characters.
func (s *AccountService) DeleteAccount(ctx context.Context, username, city, state string) error {
	username = strings.TrimSpace(username)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	if username == "" || city == "" || state == "" {
		return invalid("All fields are required.")
	}

	deleted, err := s.accounts.DeleteIf(ctx, username, func(a *models.Account) bool {
		return PrefixMatch(a.City, city) && PrefixMatch(a.State, state)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNoMatchingAccount
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.publish(ctx, models.EventAccountDeleted, deleted.Username, "")
	return nil
}

// PrefixMatch reports whether given starts with the first three characters
// of stored, ignoring case. A stored value shorter than three characters must
// be matched in full, so "Il" matches "illinois" while "Indiana" and a lone
// "i" do not. Two different places sharing a prefix will match; that
// looseness is intended.
func PrefixMatch(stored, given string) bool {
	rs := []rune(strings.ToLower(strings.TrimSpace(stored)))
	rg := []rune(strings.ToLower(strings.TrimSpace(given)))
	n := min(matchPrefix, len(rs))
	if n == 0 || len(rg) < n {
		return false
	}
	return string(rs[:n]) == string(rg[:n])
}

// SecurityQuestions lists the question texts offered at registration.
func (s *AccountService) SecurityQuestions(ctx context.Context) ([]string, error) {
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Question
	}
	return texts, nil
}

// Account returns the stored account for username.
func (s *AccountService) Account(ctx context.Context, username string) (*models.Account, error) {
	return s.accounts.GetByUsername(ctx, username)
}

func (s *AccountService) publish(ctx context.Context, kind models.AccountEventType, username, ip string) {
	if s.events == nil {
		return
	}
	event := models.AccountEvent{
		ID:         uuid.NewString(),
		Type:       kind,
		Username:   username,
		IP:         ip,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishAccountEvent(event); err != nil {
		s.log.Warn(ctx, "failed to publish account event", "type", kind, "username", username, "error", err)
	}
}

// ResolveClientIP picks the first X-Forwarded-For entry, then the peer
// address, then "Unknown".
func ResolveClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if remoteAddr = strings.TrimSpace(remoteAddr); remoteAddr != "" {
		return remoteAddr
	}
	return "Unknown"
}

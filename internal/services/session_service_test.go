package services_test

import (
	"testing"
	"time"

	"albumportal/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSessionService_IssueAndResume(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	sessions := services.NewSessionService("test_session_secret", 15*time.Minute).WithClock(clock.Now)

	token, err := sessions.Issue("alice01")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	clock.Advance(14 * time.Minute)
	username, err := sessions.Resume(token)
	require.NoError(t, err)
	assert.Equal(t, "alice01", username)
}

func TestSessionService_IdleTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	sessions := services.NewSessionService("test_session_secret", 15*time.Minute).WithClock(clock.Now)

	token, err := sessions.Issue("alice01")
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	_, err = sessions.Resume(token)
	assert.ErrorIs(t, err, services.ErrSessionExpired)
}

func TestSessionService_RefreshExtendsSession(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	sessions := services.NewSessionService("test_session_secret", 15*time.Minute).WithClock(clock.Now)

	token, err := sessions.Issue("alice01")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		clock.Advance(10 * time.Minute)
		username, err := sessions.Resume(token)
		require.NoError(t, err)
		token, err = sessions.Issue(username)
		require.NoError(t, err)
	}
}

func TestSessionService_RejectsForgedTokens(t *testing.T) {
	sessions := services.NewSessionService("test_session_secret", 0)
	assert.Equal(t, services.DefaultIdleTimeout, sessions.IdleTimeout())

	_, err := sessions.Resume("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidSession)

	other := services.NewSessionService("another_secret", 0)
	token, err := other.Issue("mallory")
	require.NoError(t, err)
	_, err = sessions.Resume(token)
	assert.ErrorIs(t, err, services.ErrInvalidSession)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"username":      "mallory",
		"last_activity": time.Now().Unix(),
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = sessions.Resume(noneToken)
	assert.ErrorIs(t, err, services.ErrInvalidSession)
}

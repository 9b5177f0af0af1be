package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long a session survives without activity.
const DefaultIdleTimeout = 15 * time.Minute

// SessionService issues and validates the signed session token kept in the
// session cookie. The token carries the username and the time of the last
// authenticated interaction; it is re-issued on every such interaction.
type SessionService struct {
	secret      []byte
	idleTimeout time.Duration
	now         func() time.Time
}

type sessionClaims struct {
	Username     string `json:"username"`
	LastActivity int64  `json:"last_activity"`
	jwt.StandardClaims
}

// NewSessionService creates a new SessionService. A non-positive idleTimeout
// selects DefaultIdleTimeout.
func NewSessionService(secret string, idleTimeout time.Duration) *SessionService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &SessionService{
		secret:      []byte(secret),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// WithClock replaces the clock. Used by tests to move time forward.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// IdleTimeout reports the configured inactivity limit.
func (s *SessionService) IdleTimeout() time.Duration {
	return s.idleTimeout
}

// Issue signs a session token for username stamped with the current time.
func (s *SessionService) Issue(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username:     username,
		LastActivity: s.now().Unix(),
		StandardClaims: jwt.StandardClaims{
			Id: uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Resume validates a session token and returns its username. Sessions idle
// for longer than the timeout yield ErrSessionExpired.
func (s *SessionService) Resume(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Username == "" {
		return "", ErrInvalidSession
	}

	idle := s.now().Sub(time.Unix(claims.LastActivity, 0))
	if idle > s.idleTimeout {
		return "", ErrSessionExpired
	}
	return claims.Username, nil
}
